package httpdto

import "time"

// SightingRequest is used for POST /reports/:id/sightings
type SightingRequest struct {
	Description string    `json:"description" binding:"required"`
	DateTime    time.Time `json:"date_time" binding:"required"`
	Address     string    `json:"address,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty" binding:"omitempty,len=2"`
	Photos      []string  `json:"photos,omitempty"`
	Name        string    `json:"name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty" binding:"omitempty,email"`
}

// UpdateSightingRequest is used for PUT /sightings/:id. Absent fields are left unchanged.
type UpdateSightingRequest struct {
	Description *string    `json:"description,omitempty"`
	DateTime    *time.Time `json:"date_time,omitempty"`
	Address     *string    `json:"address,omitempty"`
	Coordinates []float64  `json:"coordinates,omitempty" binding:"omitempty,len=2"`
	Photos      []string   `json:"photos,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Email       *string    `json:"email,omitempty"`
}
