package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"tripcart/models"

	"github.com/hibiken/asynq"
)

const TypeHoldExpire = "hold:expire"

// HoldExpirePayload identifies the hold an expiry task should evict.
type HoldExpirePayload struct {
	SessionID string `json:"sessionId"`
	UnitKey   string `json:"unitKey"`
	ExpiresAt int64  `json:"expiresAt"`
}

// NewHoldExpireTask builds the task that fires at the hold's expiry instant.
func NewHoldExpireTask(entry models.ExpiryEntry) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(HoldExpirePayload{
		SessionID: entry.SessionID,
		UnitKey:   entry.Unit.String(),
		ExpiresAt: entry.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeHoldExpire, b)
	opts := []asynq.Option{asynq.ProcessAt(entry.ExpiresAt)}

	return task, opts, nil
}

// AsynqExpiryScheduler schedules expiry tasks on the shared asynq queue.
type AsynqExpiryScheduler struct {
	Client *asynq.Client
}

func (s *AsynqExpiryScheduler) ScheduleExpiry(ctx context.Context, entry models.ExpiryEntry) error {
	task, opts, err := NewHoldExpireTask(entry)
	if err != nil {
		return fmt.Errorf("failed to build expiry task: %w", err)
	}
	if _, err := s.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue expiry task: %w", err)
	}
	return nil
}
