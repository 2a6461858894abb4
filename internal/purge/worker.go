package purge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/adonis32/expenses-app/internal/events"
	"github.com/adonis32/expenses-app/internal/obs"
)

const defaultBatchSize = 300

// Store defines the persistence operations the purge worker needs.
type Store interface {
	DeleteExpenseBatch(ctx context.Context, listID string, limit int) (int64, error)
	DeleteList(ctx context.Context, listID string) error
}

// Worker drains a deleted list's expenses in bounded batches, then removes
// the list itself.
type Worker struct {
	Store     Store
	Bus       *events.Bus
	BatchSize int
	Logger    zerolog.Logger
}

// Register attaches the worker's handlers to an asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeListPurge, w.HandleListPurge)
}

// HandleListPurge processes a single purge task.
func (w *Worker) HandleListPurge(ctx context.Context, task *asynq.Task) error {
	if w == nil || w.Store == nil {
		return errors.New("purge: store not configured")
	}
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("purge: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ListID == "" {
		return fmt.Errorf("purge: empty list id: %w", asynq.SkipRetry)
	}

	batchSize := w.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	var batches, removed int64
	for {
		n, err := w.Store.DeleteExpenseBatch(ctx, payload.ListID, batchSize)
		if err != nil {
			return fmt.Errorf("purge: delete expense batch: %w", err)
		}
		if n == 0 {
			break
		}
		batches++
		removed += n
		if obs.ListPurgeBatchesTotal != nil {
			obs.ListPurgeBatchesTotal.Inc()
		}
	}

	if err := w.Store.DeleteList(ctx, payload.ListID); err != nil {
		return fmt.Errorf("purge: delete list: %w", err)
	}

	if w.Bus != nil {
		if _, err := w.Bus.Emit(ctx, events.TopicListPurged, payload.ListID, map[string]any{
			"expenses_removed": removed,
			"batches":          batches,
		}); err != nil {
			w.Logger.Warn().Err(err).Str("list_id", payload.ListID).Msg("emit purge event")
		}
	}

	w.Logger.Info().
		Str("list_id", payload.ListID).
		Int64("expenses_removed", removed).
		Int64("batches", batches).
		Msg("list purged")
	return nil
}
