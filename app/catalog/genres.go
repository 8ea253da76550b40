package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"streamcomb/app/tmdb"
)

// GenreLister is the slice of the catalog API the genre cache needs.
type GenreLister interface {
	GenreList(ctx context.Context) ([]tmdb.Genre, error)
}

// CacheStore is the remember-style cache the genre map is kept in.
type CacheStore interface {
	Remember(key string, ttl time.Duration, produce func() ([]byte, error)) ([]byte, error)
}

const genreCacheKey = "genres"

// GenreCache resolves the genre-id to name map through the TTL cache, so the
// upstream genre list is fetched at most once per TTL window.
type GenreCache struct {
	source GenreLister
	cache  CacheStore
	ttl    time.Duration
}

func NewGenreCache(source GenreLister, cache CacheStore, ttl time.Duration) *GenreCache {
	return &GenreCache{
		source: source,
		cache:  cache,
		ttl:    ttl,
	}
}

// Map returns the genre-id to name lookup map.
func (g *GenreCache) Map(ctx context.Context) (map[int]string, error) {
	produce := func() ([]byte, error) {
		genres, err := g.source.GenreList(ctx)
		if err != nil {
			return nil, err
		}
		genreMap := make(map[int]string, len(genres))
		for _, genre := range genres {
			genreMap[genre.ID] = genre.Name
		}
		return json.Marshal(genreMap)
	}

	var data []byte
	var err error
	if g.cache != nil {
		data, err = g.cache.Remember(genreCacheKey, g.ttl, produce)
	} else {
		data, err = produce()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve genre map: %w", err)
	}

	var genreMap map[int]string
	if err := json.Unmarshal(data, &genreMap); err != nil {
		return nil, fmt.Errorf("failed to parse cached genre map: %w", err)
	}

	return genreMap, nil
}
