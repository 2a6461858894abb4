package purge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeListPurge identifies the background task that drains a deleted list.
const TypeListPurge = "list:purge"

// TaskPayload carries the identity of the list to purge.
type TaskPayload struct {
	ListID string `json:"list_id"`
}

// NewTask builds the asynq task for purging a list.
func NewTask(listID string) (*asynq.Task, error) {
	if listID == "" {
		return nil, errors.New("purge: list id is required")
	}
	payload, err := json.Marshal(TaskPayload{ListID: listID})
	if err != nil {
		return nil, fmt.Errorf("purge: encode payload: %w", err)
	}
	return asynq.NewTask(TypeListPurge, payload), nil
}

// Enqueuer schedules purge tasks on the shared task queue.
type Enqueuer struct {
	Client *asynq.Client
}

// Enqueue schedules a purge for the given list.
func (e *Enqueuer) Enqueue(ctx context.Context, listID string) error {
	if e == nil || e.Client == nil {
		return errors.New("purge: task client not configured")
	}
	task, err := NewTask(listID)
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("purge: enqueue task: %w", err)
	}
	return nil
}
