package tmdb

// DiscoverMovie is one result row of a discover page, in the upstream API's
// wire shape.
type DiscoverMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	PosterPath  string  `json:"poster_path"`
	GenreIDs    []int   `json:"genre_ids"`
}

// DiscoverPage is one page of a provider's discover query.
type DiscoverPage struct {
	Page         int             `json:"page"`
	Results      []DiscoverMovie `json:"results"`
	TotalPages   int             `json:"total_pages"`
	TotalResults int             `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreListResponse struct {
	Genres []Genre `json:"genres"`
}

type castMember struct {
	Name string `json:"name"`
}

type creditsResponse struct {
	Cast []castMember `json:"cast"`
}
