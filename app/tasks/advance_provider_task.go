package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type AdvanceProviderTask struct {
	Task
	ProviderID int
	ChunkSize  int
	engine     CrawlEngine
}

func NewAdvanceProviderTask(providerID int, providerName string, chunkSize int, engine CrawlEngine) *AdvanceProviderTask {
	return &AdvanceProviderTask{
		Task:       NewTask(TaskTypeAdvanceProvider, providerName),
		ProviderID: providerID,
		ChunkSize:  chunkSize,
		engine:     engine,
	}
}

func (t *AdvanceProviderTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.engine.Advance(ctx, t.ProviderID, t.ChunkSize)
	if err != nil {
		return fmt.Errorf("failed to advance provider crawl: %w", err)
	}

	if result.Stalled {
		// Surfacing the stall as an error gets the scheduler's retry with
		// backoff; the cursor was left safe to resume from.
		return fmt.Errorf("provider chunk stalled: %s", result.Message)
	}

	slog.Info("Task completed",
		"type", "AdvanceProvider",
		"provider", t.ProviderName,
		"duration", t.GetDuration(),
		"new", result.Overall.NewAdded,
		"next_page", result.Provider.NextPage,
		"completed", result.Provider.Completed)

	return nil
}
