package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"streamcomb/app/crawl"
	"streamcomb/app/store"
)

type fakeEngine struct {
	advanceResult *crawl.ChunkResult
	advanceErr    error
	lastProvider  int
	lastChunkSize int
	resetSnapshot *crawl.ProviderSnapshot
	resetErr      error
	statusReport  *crawl.StatusReport
	statusErr     error
}

func (f *fakeEngine) Advance(ctx context.Context, providerID, chunkSize int) (*crawl.ChunkResult, error) {
	f.lastProvider = providerID
	f.lastChunkSize = chunkSize
	return f.advanceResult, f.advanceErr
}

func (f *fakeEngine) ResetEpoch(providerID int) (*crawl.ProviderSnapshot, error) {
	f.lastProvider = providerID
	return f.resetSnapshot, f.resetErr
}

func (f *fakeEngine) Status() (*crawl.StatusReport, error) {
	return f.statusReport, f.statusErr
}

type memoryAggregates struct {
	aggregate *store.Aggregate
	err       error
}

func (m *memoryAggregates) Load() (*store.Aggregate, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.aggregate == nil {
		return &store.Aggregate{Movies: []store.Movie{}}, nil
	}
	return m.aggregate, nil
}

func (m *memoryAggregates) Save(aggregate *store.Aggregate) error {
	m.aggregate = aggregate
	return nil
}

func serve(t *testing.T, engine EngineInterface, aggregates store.AggregateRepository,
	apiKey, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	router := NewServer(NewHandler(engine, aggregates), apiKey)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, target, nil)
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestGetFilms(t *testing.T) {
	aggregates := &memoryAggregates{aggregate: &store.Aggregate{
		Movies: []store.Movie{
			{ID: 2, Title: "zebra", ProviderIDs: []int{8}},
			{ID: 1, Title: "Apple", ProviderIDs: []int{9}},
		},
		LastUpdated: 1700000000,
	}}

	recorder := serve(t, &fakeEngine{}, aggregates, "", "GET", "/films", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", recorder.Code)
	}

	var body struct {
		Films       []store.Movie `json:"films"`
		Total       int           `json:"total"`
		LastUpdated int64         `json:"lastUpdated"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 2 || len(body.Films) != 2 {
		t.Errorf("Expected 2 films, got total=%d len=%d", body.Total, len(body.Films))
	}
	if body.LastUpdated != 1700000000 {
		t.Errorf("Unexpected lastUpdated: %d", body.LastUpdated)
	}
}

func TestGetFilmsSortedByTitle(t *testing.T) {
	aggregates := &memoryAggregates{aggregate: &store.Aggregate{
		Movies: []store.Movie{
			{ID: 2, Title: "zebra"},
			{ID: 1, Title: "Apple"},
		},
	}}

	recorder := serve(t, &fakeEngine{}, aggregates, "", "GET", "/films?sort=title", nil)

	var body struct {
		Films []store.Movie `json:"films"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Films[0].Title != "Apple" {
		t.Errorf("Expected case-insensitive title sort, got '%s' first", body.Films[0].Title)
	}
}

func TestGetFilmsProviderFilter(t *testing.T) {
	aggregates := &memoryAggregates{aggregate: &store.Aggregate{
		Movies: []store.Movie{
			{ID: 1, Title: "A", ProviderIDs: []int{8}},
			{ID: 2, Title: "B", ProviderIDs: []int{9}},
			{ID: 3, Title: "C", ProviderIDs: []int{8, 9}},
		},
	}}

	recorder := serve(t, &fakeEngine{}, aggregates, "", "GET", "/films?provider=8", nil)

	var body struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 2 {
		t.Errorf("Expected 2 films for provider 8, got %d", body.Total)
	}
}

func TestGetFilmsStoreError(t *testing.T) {
	aggregates := &memoryAggregates{err: errors.New("disk gone")}

	recorder := serve(t, &fakeEngine{}, aggregates, "", "GET", "/films", nil)
	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", recorder.Code)
	}
}

func TestAdvanceChunk(t *testing.T) {
	engine := &fakeEngine{advanceResult: &crawl.ChunkResult{
		Provider: crawl.ProviderSnapshot{ID: 8, Name: "Netflix", NextPage: 2},
		Overall:  crawl.ChunkTotals{CachedMovies: 20, NewAdded: 20},
	}}

	recorder := serve(t, engine, &memoryAggregates{}, "", "POST", "/providers/8/chunk?chunkSize=200", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", recorder.Code)
	}
	if engine.lastProvider != 8 || engine.lastChunkSize != 200 {
		t.Errorf("Expected advance(8, 200), got advance(%d, %d)", engine.lastProvider, engine.lastChunkSize)
	}

	var result crawl.ChunkResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Overall.NewAdded != 20 {
		t.Errorf("Expected 20 new movies in response, got %d", result.Overall.NewAdded)
	}
}

func TestAdvanceChunkDefaultSize(t *testing.T) {
	engine := &fakeEngine{advanceResult: &crawl.ChunkResult{}}

	serve(t, engine, &memoryAggregates{}, "", "POST", "/providers/8/chunk", nil)
	if engine.lastChunkSize != 0 {
		t.Errorf("Expected zero budget passthrough for clamping, got %d", engine.lastChunkSize)
	}
}

func TestAdvanceChunkBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		engine *fakeEngine
	}{
		{"non-numeric provider", "/providers/netflix/chunk", &fakeEngine{}},
		{"bad chunk size", "/providers/8/chunk?chunkSize=lots", &fakeEngine{}},
		{"unknown provider", "/providers/999/chunk", &fakeEngine{advanceErr: crawl.ErrUnknownProvider}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(t, tt.engine, &memoryAggregates{}, "", "POST", tt.target, nil)
			if recorder.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", recorder.Code)
			}
		})
	}
}

func TestAdvanceChunkStalled(t *testing.T) {
	engine := &fakeEngine{advanceResult: &crawl.ChunkResult{
		Stalled: true,
		Message: "Upstream catalog unavailable, chunk aborted.",
	}}

	recorder := serve(t, engine, &memoryAggregates{}, "", "POST", "/providers/8/chunk", nil)
	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502 for a stalled chunk, got %d", recorder.Code)
	}

	var result crawl.ChunkResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Stalled {
		t.Error("Stalled flag must survive in the response body")
	}
}

func TestAdvanceChunkEngineFailure(t *testing.T) {
	engine := &fakeEngine{advanceErr: errors.New("store corrupted")}

	recorder := serve(t, engine, &memoryAggregates{}, "", "POST", "/providers/8/chunk", nil)
	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", recorder.Code)
	}
}

func TestGetStatus(t *testing.T) {
	engine := &fakeEngine{statusReport: &crawl.StatusReport{
		Overall:   crawl.OverallStatus{TotalCached: 42},
		Providers: []crawl.ProviderSnapshot{{ID: 8, Name: "Netflix"}},
	}}

	recorder := serve(t, engine, &memoryAggregates{}, "", "GET", "/status", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", recorder.Code)
	}

	var report crawl.StatusReport
	if err := json.Unmarshal(recorder.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Overall.TotalCached != 42 {
		t.Errorf("Expected 42 total cached, got %d", report.Overall.TotalCached)
	}
}

func TestResetProviderRequiresAuth(t *testing.T) {
	engine := &fakeEngine{resetSnapshot: &crawl.ProviderSnapshot{ID: 8, NextPage: 1}}

	recorder := serve(t, engine, &memoryAggregates{}, "secret", "POST", "/api/providers/8/reset", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a key, got %d", recorder.Code)
	}

	recorder = serve(t, engine, &memoryAggregates{}, "secret", "POST", "/api/providers/8/reset",
		map[string]string{"X-API-Key": "wrong"})
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a wrong key, got %d", recorder.Code)
	}

	recorder = serve(t, engine, &memoryAggregates{}, "secret", "POST", "/api/providers/8/reset",
		map[string]string{"X-API-Key": "secret"})
	if recorder.Code != http.StatusOK {
		t.Errorf("Expected 200 with the right key, got %d", recorder.Code)
	}

	recorder = serve(t, engine, &memoryAggregates{}, "secret", "POST", "/api/providers/8/reset",
		map[string]string{"Authorization": "Bearer secret"})
	if recorder.Code != http.StatusOK {
		t.Errorf("Expected 200 with a bearer key, got %d", recorder.Code)
	}
}

func TestResetProviderDisabledWithoutKey(t *testing.T) {
	recorder := serve(t, &fakeEngine{}, &memoryAggregates{}, "", "POST", "/api/providers/8/reset", nil)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when the API group is disabled, got %d", recorder.Code)
	}
}

func TestGetHealth(t *testing.T) {
	engine := &fakeEngine{statusReport: &crawl.StatusReport{
		Overall:   crawl.OverallStatus{TotalCached: 7},
		Providers: []crawl.ProviderSnapshot{{ID: 8}, {ID: 9}},
	}}

	recorder := serve(t, engine, &memoryAggregates{}, "", "GET", "/health", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", recorder.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health["cached_movies"].(float64) != 7 {
		t.Errorf("Expected 7 cached movies, got %v", health["cached_movies"])
	}
}
