package memory

import (
	"context"
	"time"

	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/outbox"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type notificationRepository struct {
	s *Store
	j *journal
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	id := n.ID
	dropAppended(r.j, &r.s.data.notifications, func(x notification.Notification) bool { return x.ID == id })
	r.s.data.notifications = append(r.s.data.notifications, *n)
	return nil
}

// GetUserNotifications walks the log backwards so the newest come first.
func (r *notificationRepository) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []notification.Notification
	for i := len(r.s.data.notifications) - 1; i >= 0; i-- {
		n := r.s.data.notifications[i]
		if n.UserID != userID {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, n := range r.s.data.notifications {
		if n.ID != id {
			continue
		}
		if n.UserID != userID {
			return notification.Notification{}, lperrors.ErrNotFound
		}
		keepItem(r.j, &r.s.data.notifications, r.s.data.notifications[i], func(x notification.Notification) bool { return x.ID == id })
		n.Read = true
		r.s.data.notifications[i] = n
		return n, nil
	}
	return notification.Notification{}, lperrors.ErrNotFound
}

type outboxRepository struct {
	s *Store
	j *journal
}

func (r *outboxRepository) Create(ctx context.Context, event *outbox.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = outbox.StatusPending
	}
	stored := *event
	stored.Payload = append([]byte(nil), event.Payload...)
	dropAppended(r.j, &r.s.data.outbox, func(x outbox.OutboxEvent) bool { return x.ID == stored.ID })
	r.s.data.outbox = append(r.s.data.outbox, stored)
	return nil
}

func (r *outboxRepository) GetPending(ctx context.Context, limit int) ([]outbox.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []outbox.OutboxEvent
	for _, e := range r.s.data.outbox {
		if e.Status != outbox.StatusPending || e.RetryCount >= outbox.MaxRetries {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *outboxRepository) update(id uuid.UUID, fn func(e *outbox.OutboxEvent)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.data.outbox {
		if r.s.data.outbox[i].ID == id {
			keepItem(r.j, &r.s.data.outbox, r.s.data.outbox[i], func(x outbox.OutboxEvent) bool { return x.ID == id })
			fn(&r.s.data.outbox[i])
			r.s.data.outbox[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return lperrors.ErrNotFound
}

// MarkProcessing claims a pending event. Events already claimed are ErrConflict.
func (r *outboxRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	claimed := false
	err := r.update(id, func(e *outbox.OutboxEvent) {
		if e.Status == outbox.StatusPending {
			e.Status = outbox.StatusProcessing
			claimed = true
		}
	})
	if err != nil {
		return err
	}
	if !claimed {
		return lperrors.ErrConflict
	}
	return nil
}

func (r *outboxRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(e *outbox.OutboxEvent) {
		now := time.Now().UTC()
		e.Status = outbox.StatusCompleted
		e.ProcessedAt = &now
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.update(id, func(e *outbox.OutboxEvent) {
		e.Status = outbox.StatusFailed
		e.Error = errorMsg
	})
}

func (r *outboxRepository) IncrementRetry(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.update(id, func(e *outbox.OutboxEvent) {
		e.RetryCount++
		e.Status = outbox.StatusPending
		e.Error = errorMsg
	})
}
