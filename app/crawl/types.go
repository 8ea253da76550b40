package crawl

import (
	"context"
	"errors"
	"time"

	"streamcomb/app/tmdb"
)

// ErrUnknownProvider flags a chunk request for a provider id that is not in
// the registry. No state is touched in that case.
var ErrUnknownProvider = errors.New("unknown provider id")

// CatalogAPI is the slice of the external movie API the engine consumes.
type CatalogAPI interface {
	DiscoverByProvider(ctx context.Context, providerID, page int) (*tmdb.DiscoverPage, error)
	TopCast(ctx context.Context, movieID int64) ([]string, error)
}

// GenreSource resolves the genre-id to name map.
type GenreSource interface {
	Map(ctx context.Context) (map[int]string, error)
}

// Options are the crawl policy knobs. The defaults are the canonical values;
// only the TTL and the date floor are exposed through configuration.
type Options struct {
	// CacheTTL is how long a completed provider crawl stays fresh before a
	// new epoch starts.
	CacheTTL time.Duration
	// StartYear is the oldest release year harvested; a row below it means
	// the descending traversal is done.
	StartYear int
	// MinChunkSize/MaxChunkSize clamp the per-call row budget.
	MinChunkSize int
	MaxChunkSize int
	// MaxPagesPerCall caps discover pages per invocation regardless of the
	// row budget.
	MaxPagesPerCall int
	// DuplicateStreakLimit is how many consecutive already-seen rows signal
	// that the crawl has wrapped into known territory.
	DuplicateStreakLimit int
}

func DefaultOptions() Options {
	return Options{
		CacheTTL:             24 * time.Hour,
		StartYear:            2020,
		MinChunkSize:         20,
		MaxChunkSize:         1000,
		MaxPagesPerCall:      60,
		DuplicateStreakLimit: 5,
	}
}

// ProviderSnapshot is the client-facing view of one provider's crawl state.
type ProviderSnapshot struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Cached            int    `json:"cached"`
	Completed         bool   `json:"completed"`
	TotalPages        *int   `json:"totalPages"`
	NextPage          int    `json:"nextPage"`
	LastFetched       int64  `json:"lastFetched"`
	LatestReleaseDate string `json:"latestReleaseDate"`
	NeedsRefresh      bool   `json:"needsRefresh"`
}

// ChunkTotals summarizes the aggregate after one chunk advance.
type ChunkTotals struct {
	CachedMovies int `json:"cachedMovies"`
	NewAdded     int `json:"newAdded"`
}

// Toast is the notification payload returned when a chunk added new movies.
type Toast struct {
	ProviderID   int    `json:"providerId"`
	ProviderName string `json:"providerName"`
	Added        int    `json:"added"`
}

// ChunkResult is the outcome of one chunk advance.
type ChunkResult struct {
	Provider ProviderSnapshot `json:"provider"`
	Overall  ChunkTotals      `json:"overall"`
	Message  string           `json:"message,omitempty"`
	Stalled  bool             `json:"stalled,omitempty"`
	Toast    *Toast           `json:"toast,omitempty"`
}

// OverallStatus summarizes the aggregate store.
type OverallStatus struct {
	TotalCached  int   `json:"totalCached"`
	UniqueMovies int   `json:"uniqueMovies"`
	LastUpdated  int64 `json:"lastUpdated"`
}

// StatusReport is the read-only projection of cursor and aggregate state.
type StatusReport struct {
	Overall        OverallStatus      `json:"overall"`
	Providers      []ProviderSnapshot `json:"providers"`
	CacheFreshness int64              `json:"cacheFreshness"`
}
