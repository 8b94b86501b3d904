package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/metrics"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const notificationListLimit = 50

// NotificationService creates notifications. Every notification is written on its own;
// a failed recipient never undoes the others.
type NotificationService struct {
	store       repository.Store
	log         *logger.Logger
	concurrency int
}

func NewNotificationService(store repository.Store, log *logger.Logger, concurrency int) *NotificationService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &NotificationService{store: store, log: log, concurrency: concurrency}
}

// Notify persists one unread notification for target.
func (s *NotificationService) Notify(ctx context.Context, target uuid.UUID, kind notification.Kind, message string, refs notification.Refs) (notification.Notification, error) {
	if target == uuid.Nil || !kind.Valid() || strings.TrimSpace(message) == "" {
		return notification.Notification{}, lperrors.ErrInvalidInput
	}

	n := notification.Notification{
		ID:             uuid.New(),
		UserID:         target,
		Message:        message,
		Kind:           kind,
		ReportID:       refs.ReportID,
		ConversationID: refs.ConversationID,
		Read:           false,
		CreatedAt:      time.Now().UTC(),
	}
	if refs.ActorName != "" {
		n.ActorName.String, n.ActorName.Valid = refs.ActorName, true
	}

	err := s.store.Notifications().Create(ctx, &n)
	metrics.RecordNotification(string(kind), err)
	if err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

// NotifyQuietly is Notify for side effects of an already committed action: failures are logged.
func (s *NotificationService) NotifyQuietly(ctx context.Context, target uuid.UUID, kind notification.Kind, message string, refs notification.Refs) {
	if _, err := s.Notify(ctx, target, kind, message, refs); err != nil {
		s.log.Ctx(ctx).Warn("notification dropped",
			zap.String("target", target.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

// Broadcast notifies every user registered at call time. It only fails when the
// recipient snapshot cannot be read; per-recipient errors are logged and counted.
func (s *NotificationService) Broadcast(ctx context.Context, kind notification.Kind, message string, refs notification.Refs) (int, error) {
	start := time.Now()
	recipients, err := s.store.Users().ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot recipients: %w", err)
	}

	var delivered, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, id := range recipients {
		target := id
		g.Go(func() error {
			if _, err := s.Notify(ctx, target, kind, message, refs); err != nil {
				failed.Add(1)
				s.log.Ctx(ctx).Warn("broadcast recipient failed", zap.String("target", target.String()), zap.Error(err))
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	metrics.BroadcastDuration.Observe(time.Since(start).Seconds())
	s.log.Ctx(ctx).Info("broadcast finished",
		zap.String("kind", string(kind)),
		zap.Int("recipients", len(recipients)),
		zap.Int64("delivered", delivered.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return int(delivered.Load()), nil
}

// List returns the newest notifications of userID.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]notification.Notification, error) {
	return s.store.Notifications().GetUserNotifications(ctx, userID, notificationListLimit)
}

// MarkRead flips the read flag. Notifications of other users are reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, rawID string, requester uuid.UUID) (notification.Notification, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return notification.Notification{}, fmt.Errorf("notification id: %w", lperrors.ErrInvalidInput)
	}
	return s.store.Notifications().MarkRead(ctx, id, requester)
}

func reportCreatedText(name, code string) string {
	return fmt.Sprintf("New missing person report %q has been submitted (Report ID: %s).", name, code)
}

func reportUpdatedText(rep report.Report) string {
	return fmt.Sprintf("Your missing person report %q (Report ID: %s) has been updated.", rep.Name, rep.ReportCode)
}

func reportDeletedText(rep report.Report) string {
	return fmt.Sprintf("Your missing person report %q (Report ID: %s) has been deleted.", rep.Name, rep.ReportCode)
}

func reportStatusText(rep report.Report, status report.Status) string {
	return fmt.Sprintf("The status of your missing person report %q (Report ID: %s) has been updated to %q.", rep.Name, rep.ReportCode, status)
}

func sightingText(authorName string, rep report.Report) string {
	name := rep.Name
	if name == "" {
		name = "a missing person"
	}
	return fmt.Sprintf("New sighting reported by %s for %s", authorName, name)
}

func messageText(senderName, reportCode string) string {
	return fmt.Sprintf("New message from %s about report %s", senderName, reportCode)
}

func reportRefs(rep report.Report) notification.Refs {
	return notification.Refs{ReportID: uuid.NullUUID{UUID: rep.ID, Valid: true}}
}
