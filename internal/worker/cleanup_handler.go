package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"resumecheck/internal/tasks"
)

// objectDeleter is the slice of the storage client the cleanup handler needs.
type objectDeleter interface {
	Delete(ctx context.Context, objectKey string) error
}

// BlobCleanupHandler consumes blob cleanup tasks enqueued when a resume is
// deleted. Deletion is idempotent, so redeliveries are harmless.
type BlobCleanupHandler struct {
	storage objectDeleter
	logger  *slog.Logger
}

// NewBlobCleanupHandler builds the handler.
func NewBlobCleanupHandler(storage objectDeleter, logger *slog.Logger) *BlobCleanupHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobCleanupHandler{storage: storage, logger: logger}
}

// ProcessTask implements asynq.Handler. It deletes every key in the payload;
// a failing key fails the task so asynq retries the whole batch.
func (h *BlobCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.BlobCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal cleanup payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(slog.String("correlation_id", payload.CorrelationID))

	for _, key := range payload.ObjectKeys {
		if err := h.storage.Delete(ctx, key); err != nil {
			log.Error("delete blob failed", slog.String("object_key", key), slog.Any("error", err))
			return err
		}
		log.Info("blob deleted", slog.String("object_key", key))
	}
	return nil
}
