package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindReport   Kind = "report"
	KindSighting Kind = "sighting"
	KindMessage  Kind = "message"
)

func (k Kind) Valid() bool {
	switch k {
	case KindReport, KindSighting, KindMessage:
		return true
	}
	return false
}

// Notification represents the notifications table. Only Read changes after creation.
type Notification struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Message        string
	Kind           Kind
	ReportID       uuid.NullUUID
	ConversationID uuid.NullUUID
	ActorName      sql.NullString
	Read           bool
	CreatedAt      time.Time
}

// Refs are the optional references attached to a notification.
type Refs struct {
	ReportID       uuid.NullUUID
	ConversationID uuid.NullUUID
	ActorName      string
}
