package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var _ AggregateRepository = (*FileAggregateRepository)(nil)

// FileAggregateRepository stores the aggregate document as a JSON file.
// Saves go through a temp file plus rename so a crash mid-write never leaves
// a truncated document behind.
type FileAggregateRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileAggregateRepository(path string) *FileAggregateRepository {
	return &FileAggregateRepository{path: path}
}

func (r *FileAggregateRepository) Load() (*Aggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return &Aggregate{Movies: []Movie{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregate document: %w", err)
	}

	var aggregate Aggregate
	if err := json.Unmarshal(data, &aggregate); err != nil {
		return nil, fmt.Errorf("failed to parse aggregate document: %w", err)
	}
	if aggregate.Movies == nil {
		aggregate.Movies = []Movie{}
	}

	return &aggregate, nil
}

func (r *FileAggregateRepository) Save(aggregate *Aggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeDocument(r.path, aggregate)
}

// writeDocument marshals the document and replaces the target file atomically.
func writeDocument(path string, document any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	return nil
}
