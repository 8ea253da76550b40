package store

type GenreRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ProviderRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is one entry of the aggregate document. Scalar fields are copied from
// the catalog API at ingestion time and never refreshed; only the provider
// membership grows afterwards.
type Movie struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	ReleaseDate string        `json:"release_date"`
	Year        string        `json:"year"`
	Overview    string        `json:"overview"`
	VoteAverage float64       `json:"vote_average"`
	VoteCount   int           `json:"vote_count"`
	PosterPath  string        `json:"poster_path"`
	Genres      []GenreRef    `json:"genres"`
	Cast        []string      `json:"cast"`
	ProviderIDs []int         `json:"provider_ids"`
	Providers   []ProviderRef `json:"providers"`
	DetailURL   string        `json:"tmdb_url"`
}

// HasProvider reports whether the movie is already attributed to the provider.
func (m *Movie) HasProvider(providerID int) bool {
	for _, id := range m.ProviderIDs {
		if id == providerID {
			return true
		}
	}
	return false
}

// Aggregate is the deduplicated union of all movies seen across all providers.
type Aggregate struct {
	Movies      []Movie `json:"movies"`
	LastUpdated int64   `json:"lastUpdated"`
}

// ProviderCursor is the persisted crawl progress of a single provider.
// NextPage is always >= 1; TotalPages stays nil until the first successful
// discover page of the current epoch reports it.
type ProviderCursor struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	LastFetched       int64   `json:"lastFetched"`
	NextPage          int     `json:"nextPage"`
	TotalPages        *int    `json:"totalPages"`
	Completed         bool    `json:"completed"`
	LatestReleaseDate string  `json:"latestReleaseDate"`
	SeenIDs           []int64 `json:"seen_ids"`
}

// SeenSet materializes the seen-id list as a lookup set.
func (c *ProviderCursor) SeenSet() map[int64]struct{} {
	seen := make(map[int64]struct{}, len(c.SeenIDs))
	for _, id := range c.SeenIDs {
		seen[id] = struct{}{}
	}
	return seen
}

// CursorSet is the cursor document: one cursor per provider plus the
// crawl-level refresh timestamp.
type CursorSet struct {
	Providers        map[int]*ProviderCursor `json:"providers"`
	LastCacheRefresh int64                   `json:"lastCacheRefresh"`
}

// Ensure returns the cursor for the provider, creating a fresh one in place
// when the provider has never been referenced before.
func (s *CursorSet) Ensure(providerID int, name string) *ProviderCursor {
	if s.Providers == nil {
		s.Providers = make(map[int]*ProviderCursor)
	}
	if cursor, ok := s.Providers[providerID]; ok {
		return cursor
	}
	cursor := &ProviderCursor{
		ID:       providerID,
		Name:     name,
		NextPage: 1,
	}
	s.Providers[providerID] = cursor
	return cursor
}
