package message

import (
	"time"

	"github.com/google/uuid"
)

// Message represents the messages table. Messages are append-only.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	ReportID       uuid.UUID
	ReportCode     string
	SenderID       uuid.UUID
	Content        string
	CreatedAt      time.Time
}
