package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lost-persons/internal/domain/outbox"
	"lost-persons/internal/repository"

	"github.com/google/uuid"
)

// createOutboxEvent records an event inside the caller's transaction.
func createOutboxEvent(ctx context.Context, repo repository.OutboxRepository, aggregateType, eventType, aggregateID string, payload interface{}) error {
	data := []byte("{}")
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", eventType, err)
		}
		data = raw
	}
	now := time.Now().UTC()
	return repo.Create(ctx, &outbox.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       data,
		Status:        outbox.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}
