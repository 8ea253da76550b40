package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type PruneCacheTask struct {
	Task
	pruner CachePruner
}

func NewPruneCacheTask(pruner CachePruner) *PruneCacheTask {
	return &PruneCacheTask{
		Task:   NewTask(TaskTypePruneCache, ""),
		pruner: pruner,
	}
}

func (t *PruneCacheTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	removed, err := t.pruner.Prune()
	if err != nil {
		return fmt.Errorf("failed to prune metadata cache: %w", err)
	}

	if removed > 0 {
		slog.Info("Task completed",
			"type", "PruneCache",
			"duration", t.GetDuration(),
			"removed", removed)
	}

	return nil
}
