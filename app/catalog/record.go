package catalog

import (
	"fmt"

	"streamcomb/app/store"
	"streamcomb/app/tmdb"
)

const movieURLBase = "https://www.themoviedb.org/movie/"

// BuildMovieRecord projects a discover row into an aggregate movie entry,
// resolving genre ids against the genre map and attributing the sighting to
// the given provider. Genre ids missing from the map are dropped.
func BuildMovieRecord(row tmdb.DiscoverMovie, genres map[int]string, provider Provider, cast []string) store.Movie {
	genreList := make([]store.GenreRef, 0, len(row.GenreIDs))
	for _, genreID := range row.GenreIDs {
		name, ok := genres[genreID]
		if !ok {
			continue
		}
		genreList = append(genreList, store.GenreRef{ID: genreID, Name: name})
	}

	year := ""
	if len(row.ReleaseDate) >= 4 {
		year = row.ReleaseDate[:4]
	}

	if cast == nil {
		cast = []string{}
	}

	return store.Movie{
		ID:          row.ID,
		Title:       row.Title,
		ReleaseDate: row.ReleaseDate,
		Year:        year,
		Overview:    row.Overview,
		VoteAverage: row.VoteAverage,
		VoteCount:   row.VoteCount,
		PosterPath:  row.PosterPath,
		Genres:      genreList,
		Cast:        cast,
		ProviderIDs: []int{provider.ID},
		Providers:   []store.ProviderRef{{ID: provider.ID, Name: provider.Name}},
		DetailURL:   fmt.Sprintf("%s%d", movieURLBase, row.ID),
	}
}
