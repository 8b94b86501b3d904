package sighting

import (
	"time"

	"lost-persons/internal/domain/report"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

type Location struct {
	DateTime    time.Time
	Address     string
	Coordinates *report.Point
}

type ContactInfo struct {
	Name  string
	Phone string
	Email string
}

// Sighting is a tip submitted against a report.
type Sighting struct {
	ID          uuid.UUID
	ReportID    uuid.UUID
	Description string
	Location    Location
	Photos      []string
	CreatedBy   uuid.UUID
	ContactInfo ContactInfo
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
