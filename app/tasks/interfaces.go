package tasks

import (
	"context"

	"streamcomb/app/crawl"
)

// CrawlEngine is the slice of the aggregation engine the background tasks
// drive. Implemented by crawl.Engine.
type CrawlEngine interface {
	Advance(ctx context.Context, providerID, chunkSize int) (*crawl.ChunkResult, error)
	Status() (*crawl.StatusReport, error)
}

// CachePruner drops expired metadata cache rows. Implemented by cache.Cache.
type CachePruner interface {
	Prune() (int64, error)
}

// TaskSchedulerInterface defines the interface for background task scheduling.
// Used by the main application to run the periodic provider refresh loop.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
