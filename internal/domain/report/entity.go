package report

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusResolved
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Point is a [lng, lat] pair.
type Point struct {
	Longitude float64
	Latitude  float64
}

func (p Point) Valid() bool {
	return p.Longitude >= -180 && p.Longitude <= 180 && p.Latitude >= -90 && p.Latitude <= 90
}

type LastSeen struct {
	DateTime    time.Time
	Address     string
	Coordinates Point
}

// Report represents the reports table. ReportCode is the stable external identifier
// clients use when messaging about a case.
type Report struct {
	ID                 uuid.UUID
	ReportCode         string
	Name               string
	Age                int
	Phone              string
	Gender             Gender
	LastSeen           LastSeen
	Description        string
	Photos             []string
	Videos             []string
	Weight             string
	Height             string
	HairColor          string
	EyeColor           string
	Markup             string
	SkinColor          string
	PoliceReportNumber string
	Bonus              string
	CreatedBy          uuid.UUID
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DisplayName falls back to a generic label for conversation snapshots.
func (r Report) DisplayName() string {
	if r.Name == "" {
		return "Missing Person"
	}
	return r.Name
}

// Filter narrows report listings.
type Filter struct {
	Name      string
	AgeMin    int
	AgeMax    int
	Gender    Gender
	CreatedBy uuid.NullUUID
	Page      int
	Limit     int
}

// Update is a progress note posted against a report.
type Update struct {
	ID         uuid.UUID
	ReportID   uuid.UUID
	AuthorID   uuid.UUID
	Content    string
	IsOfficial bool
	CreatedAt  time.Time
}
