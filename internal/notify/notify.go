package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SubmissionProgressMessage is the wire shape forwarded to clients over the
// WebSocket relay. Field names must stay in sync with the frontend parser.
type SubmissionProgressMessage struct {
	Phase         string `json:"phase"`
	ResumeID      string `json:"resume_id,omitempty"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Publisher fans submission progress out through Redis Pub/Sub, one channel
// per user.
type Publisher struct {
	redisClient *redis.Client
}

// NewPublisher wraps an existing Redis client.
func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redisClient: redisClient}
}

// Channel returns the per-user notification channel name.
func Channel(userID string) string {
	return "notify:" + userID
}

// PublishProgress sends one progress message to the user's channel.
func (p *Publisher) PublishProgress(ctx context.Context, userID string, msg SubmissionProgressMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal progress message: %w", err)
	}
	if err := p.redisClient.Publish(ctx, Channel(userID), payload).Err(); err != nil {
		return fmt.Errorf("publish progress for user %q: %w", userID, err)
	}
	return nil
}
