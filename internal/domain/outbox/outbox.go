package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of an outbox event
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Event types dispatched by the outbox worker.
const (
	EventReportCreated = "report.created"
)

const AggregateReport = "report"

// MaxRetries is the retry budget before an event is marked failed.
const MaxRetries = 10

// OutboxEvent stores domain events written in the same transaction as the
// triggering change and dispatched asynchronously.
type OutboxEvent struct {
	ID            uuid.UUID
	EventType     string
	AggregateType string
	AggregateID   string
	Payload       []byte
	Status        Status
	RetryCount    int
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ProcessedAt   *time.Time
}

// ReportCreatedPayload is the payload of EventReportCreated.
type ReportCreatedPayload struct {
	ReportID   uuid.UUID `json:"report_id"`
	ReportCode string    `json:"report_code"`
	Name       string    `json:"name"`
	CreatedBy  uuid.UUID `json:"created_by"`
}
