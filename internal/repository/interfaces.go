package repository

import (
	"context"

	"github.com/google/uuid"

	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/domain/message"
	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/outbox"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/sighting"
	"lost-persons/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error)
	GetAllUsers(ctx context.Context, page, limit int) ([]user.User, int64, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateUser(ctx context.Context, u user.User) error
}

type ReportRepository interface {
	Create(ctx context.Context, r *report.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (report.Report, error)
	GetByCode(ctx context.Context, code string) (report.Report, error)
	List(ctx context.Context, filter report.Filter) ([]report.Report, int64, error)
	Update(ctx context.Context, r report.Report) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status report.Status) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateUpdate(ctx context.Context, u *report.Update) error
	GetUpdates(ctx context.Context, reportID uuid.UUID) ([]report.Update, error)
}

type SightingRepository interface {
	Create(ctx context.Context, s *sighting.Sighting) error
	GetByID(ctx context.Context, id uuid.UUID) (sighting.Sighting, error)
	GetReportSightings(ctx context.Context, reportID uuid.UUID) ([]sighting.Sighting, error)
	Update(ctx context.Context, s sighting.Sighting) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status sighting.Status) error
}

type ConversationRepository interface {
	// GetOrCreate inserts c unless a conversation with the same report and participant
	// key exists. c is overwritten with the stored row; created reports which case applied.
	GetOrCreate(ctx context.Context, c *conversation.Conversation) (created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	GetReportConversations(ctx context.Context, reportID uuid.UUID) ([]conversation.Conversation, error)
	// GetUserConversations lists conversations userID takes part in, optionally narrowed to one
	// report code, most recently updated first.
	GetUserConversations(ctx context.Context, userID uuid.UUID, reportCode string) ([]conversation.Conversation, error)
	// UpdateParticipants persists c.Participants and c.ParticipantKey if the stored key
	// still equals previousKey; otherwise ErrConflict.
	UpdateParticipants(ctx context.Context, c conversation.Conversation, previousKey string) error
	SetLastMessage(ctx context.Context, conversationID uuid.UUID, last conversation.LastMessage) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]message.Message, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) error
	GetUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error)
	// MarkRead flips the read flag of a notification owned by userID. Missing and
	// foreign notifications are both ErrNotFound.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (notification.Notification, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *outbox.OutboxEvent) error
	GetPending(ctx context.Context, limit int) ([]outbox.OutboxEvent, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error
	IncrementRetry(ctx context.Context, id uuid.UUID, errorMsg string) error
}

// Store groups the repositories of one backend. WithTx runs fn against a Store whose
// repositories share a single transaction.
type Store interface {
	Users() UserRepository
	Reports() ReportRepository
	Sightings() SightingRepository
	Conversations() ConversationRepository
	Messages() MessageRepository
	Notifications() NotificationRepository
	Outbox() OutboxRepository

	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
