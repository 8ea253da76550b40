package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

var _ CursorRepository = (*FileCursorRepository)(nil)

// FileCursorRepository stores the cursor document as a JSON file with the
// same atomic-replace discipline as the aggregate repository.
type FileCursorRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileCursorRepository(path string) *FileCursorRepository {
	return &FileCursorRepository{path: path}
}

func (r *FileCursorRepository) Load() (*CursorSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return &CursorSet{Providers: make(map[int]*ProviderCursor)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cursor document: %w", err)
	}

	var set CursorSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse cursor document: %w", err)
	}
	if set.Providers == nil {
		set.Providers = make(map[int]*ProviderCursor)
	}
	for _, cursor := range set.Providers {
		if cursor.NextPage < 1 {
			cursor.NextPage = 1
		}
	}

	return &set, nil
}

func (r *FileCursorRepository) Save(set *CursorSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeDocument(r.path, set)
}
