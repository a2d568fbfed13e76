package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants keep queue producers and consumers aligned.
const (
	TypeBlobCleanup = "blob:cleanup"
)

// BlobCleanupPayload carries the object keys to delete after a resume is
// removed.
type BlobCleanupPayload struct {
	ObjectKeys    []string `json:"object_keys"`
	CorrelationID string   `json:"correlation_id"`
}

// NewBlobCleanupTask builds a cleanup task for the given object keys.
func NewBlobCleanupTask(objectKeys []string, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(BlobCleanupPayload{
		ObjectKeys:    objectKeys,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBlobCleanup, payload), nil
}
