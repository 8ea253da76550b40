package store

// AggregateRepository persists the deduplicated movie aggregate as a single
// document, fully rewritten on every save.
type AggregateRepository interface {
	Load() (*Aggregate, error)
	Save(aggregate *Aggregate) error
}

// CursorRepository persists per-provider crawl cursors as a single document,
// fully rewritten on every save.
type CursorRepository interface {
	Load() (*CursorSet, error)
	Save(set *CursorSet) error
}
