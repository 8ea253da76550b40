package crawl

import (
	"time"

	"streamcomb/app/store"
)

// buildSnapshot projects a cursor plus the current aggregate into the
// client-facing provider view. Pure; no repository access.
func buildSnapshot(cursor *store.ProviderCursor, movies []store.Movie, now time.Time, ttl time.Duration) ProviderSnapshot {
	cached := 0
	for i := range movies {
		if movies[i].HasProvider(cursor.ID) {
			cached++
		}
	}

	needsRefresh := !cursor.Completed || now.Unix()-cursor.LastFetched > int64(ttl.Seconds())

	return ProviderSnapshot{
		ID:                cursor.ID,
		Name:              cursor.Name,
		Cached:            cached,
		Completed:         cursor.Completed,
		TotalPages:        cursor.TotalPages,
		NextPage:          cursor.NextPage,
		LastFetched:       cursor.LastFetched,
		LatestReleaseDate: cursor.LatestReleaseDate,
		NeedsRefresh:      needsRefresh,
	}
}
