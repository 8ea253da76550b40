// Package crawl implements the incremental multi-provider catalog
// aggregation engine. Each Advance call moves exactly one provider's crawl
// forward by a bounded amount of work and merges the harvested movies into
// the shared aggregate document.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"streamcomb/app/catalog"
	"streamcomb/app/store"
)

type Engine struct {
	api        CatalogAPI
	genres     GenreSource
	aggregates store.AggregateRepository
	cursors    store.CursorRepository
	registry   *catalog.Registry
	opts       Options

	// storeMu serializes read-modify-write cycles on the two shared
	// documents across providers; providerMu serializes advances for the
	// same provider.
	storeMu    sync.Mutex
	mu         sync.Mutex
	providerMu map[int]*sync.Mutex

	now func() time.Time
}

func NewEngine(api CatalogAPI, genres GenreSource, aggregates store.AggregateRepository,
	cursors store.CursorRepository, registry *catalog.Registry, opts Options) *Engine {
	return &Engine{
		api:        api,
		genres:     genres,
		aggregates: aggregates,
		cursors:    cursors,
		registry:   registry,
		opts:       opts,
		providerMu: make(map[int]*sync.Mutex),
		now:        time.Now,
	}
}

func (e *Engine) providerLock(providerID int) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.providerMu[providerID]
	if !ok {
		lock = &sync.Mutex{}
		e.providerMu[providerID] = lock
	}
	return lock
}

// pageOutcome carries what one paging loop gathered, to be committed against
// freshly loaded documents.
type pageOutcome struct {
	nextPage       int
	totalPages     *int
	stopEarly      bool
	upstreamFailed bool
	pagesFetched   int
	processed      int
	ingests        []store.Movie
	newSeen        []int64
	latest         string
}

// Advance moves one provider's crawl forward by at most chunkSize result rows
// (clamped into the configured bounds) and at most MaxPagesPerCall discover
// pages, then persists the merged aggregate and the advanced cursor.
func (e *Engine) Advance(ctx context.Context, providerID, chunkSize int) (*ChunkResult, error) {
	if !e.registry.Known(providerID) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProvider, providerID)
	}
	providerName := e.registry.Name(providerID)

	lock := e.providerLock(providerID)
	lock.Lock()
	defer lock.Unlock()

	chunkSize = min(max(chunkSize, e.opts.MinChunkSize), e.opts.MaxChunkSize)
	now := e.now()

	cursorSet, aggregate, err := e.loadState()
	if err != nil {
		return nil, err
	}
	cursor := cursorSet.Ensure(providerID, providerName)

	if cursor.Completed && now.Unix()-cursor.LastFetched <= int64(e.opts.CacheTTL.Seconds()) {
		return &ChunkResult{
			Provider: buildSnapshot(cursor, aggregate.Movies, now, e.opts.CacheTTL),
			Overall:  ChunkTotals{CachedMovies: len(aggregate.Movies)},
			Message:  "Provider cache is fresh.",
		}, nil
	}

	// A completed cursor past its TTL starts a new epoch from page one. The
	// seen-id set is kept: the duplicate streak is what ends the refresh
	// crawl once it reaches known territory.
	working := *cursor
	if working.Completed {
		working.Completed = false
		working.NextPage = 1
		working.TotalPages = nil
	}

	genreMap, err := e.genres.Map(ctx)
	if err != nil {
		slog.Warn("Genre map unavailable, ingesting without genre names", "provider", providerName, "error", err)
		genreMap = map[int]string{}
	}

	outcome := e.page(ctx, providerID, providerName, &working, chunkSize, genreMap, now)

	if outcome.upstreamFailed && outcome.pagesFetched == 0 {
		// Nothing durable happened; the next call retries the same page.
		return &ChunkResult{
			Provider: buildSnapshot(cursor, aggregate.Movies, now, e.opts.CacheTTL),
			Overall:  ChunkTotals{CachedMovies: len(aggregate.Movies)},
			Message:  "Upstream catalog unavailable, chunk aborted.",
			Stalled:  true,
		}, nil
	}

	return e.commit(providerID, providerName, outcome, now)
}

func (e *Engine) page(ctx context.Context, providerID int, providerName string,
	cursor *store.ProviderCursor, chunkSize int, genreMap map[int]string, now time.Time) pageOutcome {

	outcome := pageOutcome{
		nextPage:   max(cursor.NextPage, 1),
		totalPages: cursor.TotalPages,
	}
	seen := cursor.SeenSet()
	outcome.latest = cursor.LatestReleaseDate
	currentYear := now.Year()
	duplicateStreak := 0

	for {
		if outcome.pagesFetched >= e.opts.MaxPagesPerCall {
			break
		}

		page, err := e.api.DiscoverByProvider(ctx, providerID, outcome.nextPage)
		if err != nil {
			slog.Warn("Discover page failed, stopping chunk", "provider", providerName, "page", outcome.nextPage, "error", err)
			outcome.upstreamFailed = true
			break
		}
		if len(page.Results) == 0 {
			// A valid empty page means the catalog is exhausted.
			outcome.stopEarly = true
			break
		}

		outcome.pagesFetched++
		outcome.processed += len(page.Results)
		if outcome.totalPages == nil && page.TotalPages > 0 {
			totalPages := page.TotalPages
			outcome.totalPages = &totalPages
		}

		for _, row := range page.Results {
			year := 0
			if len(row.ReleaseDate) >= 4 {
				if parsed, err := strconv.Atoi(row.ReleaseDate[:4]); err == nil {
					year = parsed
				}
			}
			if year > 0 {
				if year < e.opts.StartYear {
					// Sorted descending: everything below the floor means
					// the date range of interest is fully traversed.
					outcome.stopEarly = true
					break
				}
				if year > currentYear {
					continue
				}
			}

			if _, ok := seen[row.ID]; ok {
				duplicateStreak++
				if duplicateStreak >= e.opts.DuplicateStreakLimit {
					outcome.stopEarly = true
					break
				}
				continue
			}
			duplicateStreak = 0

			cast, err := e.api.TopCast(ctx, row.ID)
			if err != nil {
				// A missing cast list is not worth losing the row over.
				slog.Warn("Credits lookup failed, ingesting without cast", "provider", providerName, "movie", row.ID, "error", err)
				cast = nil
			}

			record := catalog.BuildMovieRecord(row, genreMap, catalog.Provider{ID: providerID, Name: providerName}, cast)
			outcome.ingests = append(outcome.ingests, record)
			seen[row.ID] = struct{}{}
			outcome.newSeen = append(outcome.newSeen, row.ID)
			if row.ReleaseDate != "" && row.ReleaseDate > outcome.latest {
				outcome.latest = row.ReleaseDate
			}
		}

		if outcome.stopEarly {
			break
		}
		outcome.nextPage++
		if outcome.totalPages != nil && outcome.nextPage > *outcome.totalPages {
			outcome.stopEarly = true
			break
		}
		if outcome.processed >= chunkSize {
			break
		}
	}

	return outcome
}

// commit merges the chunk's ingests into freshly loaded documents and
// persists both, aggregate first. Persistence failures surface to the
// caller; losing a chunk's work silently would be worse.
func (e *Engine) commit(providerID int, providerName string, outcome pageOutcome, now time.Time) (*ChunkResult, error) {
	e.storeMu.Lock()
	defer e.storeMu.Unlock()

	aggregate, err := e.aggregates.Load()
	if err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(aggregate.Movies))
	for i := range aggregate.Movies {
		index[aggregate.Movies[i].ID] = i
	}

	newAdded := 0
	for i := range outcome.ingests {
		record := outcome.ingests[i]
		if pos, ok := index[record.ID]; ok {
			movie := &aggregate.Movies[pos]
			if !movie.HasProvider(providerID) {
				movie.ProviderIDs = append(movie.ProviderIDs, providerID)
				movie.Providers = append(movie.Providers, store.ProviderRef{ID: providerID, Name: providerName})
			}
			continue
		}
		index[record.ID] = len(aggregate.Movies)
		aggregate.Movies = append(aggregate.Movies, record)
		newAdded++
	}
	aggregate.LastUpdated = now.Unix()

	if err := e.aggregates.Save(aggregate); err != nil {
		return nil, fmt.Errorf("failed to persist aggregate store: %w", err)
	}

	cursorSet, err := e.cursors.Load()
	if err != nil {
		return nil, err
	}
	cursor := cursorSet.Ensure(providerID, providerName)
	cursor.Completed = outcome.stopEarly ||
		(outcome.totalPages != nil && outcome.nextPage > *outcome.totalPages)
	cursor.NextPage = outcome.nextPage
	cursor.TotalPages = outcome.totalPages
	cursor.LastFetched = now.Unix()
	cursor.SeenIDs = append(cursor.SeenIDs, outcome.newSeen...)
	if outcome.latest > cursor.LatestReleaseDate {
		cursor.LatestReleaseDate = outcome.latest
	}
	cursorSet.LastCacheRefresh = now.Unix()

	if err := e.cursors.Save(cursorSet); err != nil {
		return nil, fmt.Errorf("failed to persist cursor store: %w", err)
	}

	slog.Info("Chunk advanced",
		"provider", providerName,
		"pages", outcome.pagesFetched,
		"processed", outcome.processed,
		"new", newAdded,
		"next_page", cursor.NextPage,
		"completed", cursor.Completed)

	result := &ChunkResult{
		Provider: buildSnapshot(cursor, aggregate.Movies, now, e.opts.CacheTTL),
		Overall:  ChunkTotals{CachedMovies: len(aggregate.Movies), NewAdded: newAdded},
	}
	if outcome.upstreamFailed {
		result.Message = "Upstream catalog interrupted the chunk; progress saved."
		result.Stalled = true
	}
	if newAdded > 0 {
		result.Toast = &Toast{ProviderID: providerID, ProviderName: providerName, Added: newAdded}
	}

	return result, nil
}

// ResetEpoch discards a provider's crawl progress including its seen-id set,
// forcing the next advance to re-harvest the catalog from page one.
func (e *Engine) ResetEpoch(providerID int) (*ProviderSnapshot, error) {
	if !e.registry.Known(providerID) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProvider, providerID)
	}
	providerName := e.registry.Name(providerID)

	lock := e.providerLock(providerID)
	lock.Lock()
	defer lock.Unlock()

	e.storeMu.Lock()
	defer e.storeMu.Unlock()

	cursorSet, err := e.cursors.Load()
	if err != nil {
		return nil, err
	}
	cursor := cursorSet.Ensure(providerID, providerName)
	cursor.Completed = false
	cursor.NextPage = 1
	cursor.TotalPages = nil
	cursor.LastFetched = 0
	cursor.SeenIDs = nil

	if err := e.cursors.Save(cursorSet); err != nil {
		return nil, fmt.Errorf("failed to persist cursor store: %w", err)
	}

	aggregate, err := e.aggregates.Load()
	if err != nil {
		return nil, err
	}

	slog.Info("Provider crawl epoch reset", "provider", providerName)

	snapshot := buildSnapshot(cursor, aggregate.Movies, e.now(), e.opts.CacheTTL)
	return &snapshot, nil
}

// Status projects the persisted state into the client-facing report without
// touching the network or mutating anything.
func (e *Engine) Status() (*StatusReport, error) {
	cursorSet, aggregate, err := e.loadState()
	if err != nil {
		return nil, err
	}

	now := e.now()
	providers := make([]ProviderSnapshot, 0, e.registry.Count())
	for _, provider := range e.registry.All() {
		cursor := cursorSet.Ensure(provider.ID, provider.Name)
		providers = append(providers, buildSnapshot(cursor, aggregate.Movies, now, e.opts.CacheTTL))
	}

	return &StatusReport{
		Overall: OverallStatus{
			TotalCached:  len(aggregate.Movies),
			UniqueMovies: len(aggregate.Movies),
			LastUpdated:  aggregate.LastUpdated,
		},
		Providers:      providers,
		CacheFreshness: cursorSet.LastCacheRefresh,
	}, nil
}

func (e *Engine) loadState() (*store.CursorSet, *store.Aggregate, error) {
	e.storeMu.Lock()
	defer e.storeMu.Unlock()

	cursorSet, err := e.cursors.Load()
	if err != nil {
		return nil, nil, err
	}
	aggregate, err := e.aggregates.Load()
	if err != nil {
		return nil, nil, err
	}
	return cursorSet, aggregate, nil
}
