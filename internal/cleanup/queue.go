package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sasikola/mb-server/internal/storage"
	"go.uber.org/zap"
)

const (
	// TypeDeleteFile is the asynq task type of a stored file delete
	TypeDeleteFile = "storage:delete"
	// QueueName is the asynq queue cleanup tasks are enqueued to
	QueueName = "cleanup"
	// maxRetry bounds the retries of a failed delete
	maxRetry = 5
)

// DeleteFilePayload is the payload of a TypeDeleteFile task
type DeleteFilePayload struct {
	Reference string `json:"reference"`
}

// Enqueuer enqueues asynq tasks, satisfied by *asynq.Client
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue dispatches deletes to an asynq queue so they survive restarts and get retried
type Queue struct {
	client Enqueuer
	logger *zap.Logger
}

// NewQueue creates a new asynq backed dispatcher
func NewQueue(client Enqueuer, logger *zap.Logger) *Queue {
	return &Queue{
		client: client,
		logger: logger,
	}
}

// NewDeleteFileTask builds the task deleting reference
func NewDeleteFileTask(reference string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeleteFilePayload{Reference: reference})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return asynq.NewTask(TypeDeleteFile, payload, asynq.Queue(QueueName), asynq.MaxRetry(maxRetry)), nil
}

// Dispatch enqueues one task per local reference. Enqueue failures are logged only.
func (q *Queue) Dispatch(ctx context.Context, references ...string) {
	// The request may finish before the enqueue does
	ctx = context.WithoutCancel(ctx)

	for _, reference := range references {
		if !storage.IsLocal(reference) {
			continue
		}
		task, err := NewDeleteFileTask(reference)
		if err != nil {
			q.logger.Error("failed to build cleanup task", zap.String("reference", reference), zap.Error(err))
			continue
		}
		if _, err := q.client.EnqueueContext(ctx, task); err != nil {
			q.logger.Error("failed to enqueue cleanup task", zap.String("reference", reference), zap.Error(err))
		}
	}
}

// Worker processes cleanup tasks
type Worker struct {
	deleter Deleter
	logger  *zap.Logger
}

// NewWorker creates a new cleanup worker
func NewWorker(deleter Deleter, logger *zap.Logger) *Worker {
	return &Worker{
		deleter: deleter,
		logger:  logger,
	}
}

// HandleDeleteFile handles TypeDeleteFile tasks. Returning an error makes asynq retry the task.
func (w *Worker) HandleDeleteFile(ctx context.Context, t *asynq.Task) error {
	var payload DeleteFilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.deleter.Delete(payload.Reference); err != nil {
		if errors.Is(err, storage.ErrForeignReference) {
			w.logger.Warn("skipping cleanup of foreign reference", zap.String("reference", payload.Reference))
			return nil
		}
		w.logger.Error("failed to delete stored file", zap.String("reference", payload.Reference), zap.Error(err))
		return err
	}

	w.logger.Debug("deleted stored file", zap.String("reference", payload.Reference))
	return nil
}

// NewServeMux registers the cleanup task handlers
func NewServeMux(w *Worker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeleteFile, w.HandleDeleteFile)
	return mux
}
