package api

import (
	"context"

	"streamcomb/app/crawl"
	"streamcomb/app/store"
)

// EngineInterface is the slice of the aggregation engine the HTTP layer
// drives.
type EngineInterface interface {
	Advance(ctx context.Context, providerID, chunkSize int) (*crawl.ChunkResult, error)
	ResetEpoch(providerID int) (*crawl.ProviderSnapshot, error)
	Status() (*crawl.StatusReport, error)
}

var _ EngineInterface = (*crawl.Engine)(nil)

type Handler struct {
	engine     EngineInterface
	aggregates store.AggregateRepository
}
