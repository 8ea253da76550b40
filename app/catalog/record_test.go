package catalog

import (
	"testing"

	"streamcomb/app/tmdb"
)

func TestBuildMovieRecord(t *testing.T) {
	row := tmdb.DiscoverMovie{
		ID:          603,
		Title:       "The Matrix Resurrections",
		ReleaseDate: "2021-12-16",
		Overview:    "Return to the Matrix.",
		VoteAverage: 6.5,
		VoteCount:   5000,
		PosterPath:  "/poster.jpg",
		GenreIDs:    []int{878, 28, 12345},
	}
	genres := map[int]string{878: "Science Fiction", 28: "Action"}
	provider := Provider{ID: 8, Name: "Netflix"}

	movie := BuildMovieRecord(row, genres, provider, []string{"Keanu Reeves", "Carrie-Anne Moss"})

	if movie.ID != 603 {
		t.Errorf("Expected id 603, got %d", movie.ID)
	}
	if movie.Year != "2021" {
		t.Errorf("Expected year '2021', got '%s'", movie.Year)
	}
	if len(movie.Genres) != 2 {
		t.Fatalf("Expected 2 resolved genres, got %d", len(movie.Genres))
	}
	if movie.Genres[0].Name != "Science Fiction" {
		t.Errorf("Genres must keep API order, got '%s' first", movie.Genres[0].Name)
	}
	if len(movie.ProviderIDs) != 1 || movie.ProviderIDs[0] != 8 {
		t.Errorf("Unexpected provider ids: %v", movie.ProviderIDs)
	}
	if movie.Providers[0].Name != "Netflix" {
		t.Errorf("Unexpected provider ref: %+v", movie.Providers[0])
	}
	if movie.DetailURL != "https://www.themoviedb.org/movie/603" {
		t.Errorf("Unexpected detail URL: %s", movie.DetailURL)
	}
}

func TestBuildMovieRecordEmptyReleaseDate(t *testing.T) {
	row := tmdb.DiscoverMovie{ID: 1, Title: "Undated"}

	movie := BuildMovieRecord(row, nil, Provider{ID: 9, Name: "Amazon"}, nil)

	if movie.Year != "" {
		t.Errorf("Expected empty year, got '%s'", movie.Year)
	}
	if movie.Cast == nil {
		t.Error("Cast should be an empty list, not nil")
	}
	if len(movie.Genres) != 0 {
		t.Errorf("Expected no genres, got %d", len(movie.Genres))
	}
}
