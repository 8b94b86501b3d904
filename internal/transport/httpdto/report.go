package httpdto

import "time"

type LastSeenDTO struct {
	DateTime    *time.Time `json:"date_time,omitempty"`
	Address     string     `json:"address,omitempty"`
	Coordinates []float64  `json:"coordinates,omitempty" binding:"omitempty,len=2"`
}

// CreateReportRequest is used for POST /reports. Fields are validated by the service so
// missing ones are reported together.
type CreateReportRequest struct {
	ReportID           string      `json:"report_id,omitempty"`
	Name               string      `json:"name"`
	Age                int         `json:"age"`
	Phone              string      `json:"phone"`
	Gender             string      `json:"gender"`
	LastSeen           LastSeenDTO `json:"last_seen"`
	Description        string      `json:"description,omitempty"`
	Photos             []string    `json:"photos,omitempty"`
	Videos             []string    `json:"videos,omitempty"`
	Weight             string      `json:"weight,omitempty"`
	Height             string      `json:"height,omitempty"`
	HairColor          string      `json:"hair_color,omitempty"`
	EyeColor           string      `json:"eye_color,omitempty"`
	Markup             string      `json:"markup,omitempty"`
	SkinColor          string      `json:"skin_color,omitempty"`
	PoliceReportNumber string      `json:"police_report_number,omitempty"`
	Bonus              string      `json:"bonus,omitempty"`
}

// UpdateReportRequest is used for PUT /reports/:id. Absent fields are left unchanged.
type UpdateReportRequest struct {
	Name               *string      `json:"name,omitempty"`
	Age                *int         `json:"age,omitempty"`
	Phone              *string      `json:"phone,omitempty"`
	Gender             *string      `json:"gender,omitempty"`
	LastSeen           *LastSeenDTO `json:"last_seen,omitempty"`
	Description        *string      `json:"description,omitempty"`
	Photos             []string     `json:"photos,omitempty"`
	Videos             []string     `json:"videos,omitempty"`
	Weight             *string      `json:"weight,omitempty"`
	Height             *string      `json:"height,omitempty"`
	HairColor          *string      `json:"hair_color,omitempty"`
	EyeColor           *string      `json:"eye_color,omitempty"`
	Markup             *string      `json:"markup,omitempty"`
	SkinColor          *string      `json:"skin_color,omitempty"`
	PoliceReportNumber *string      `json:"police_report_number,omitempty"`
	Bonus              *string      `json:"bonus,omitempty"`
}

// ListReportsQuery binds GET /reports query parameters.
type ListReportsQuery struct {
	Page   int    `form:"page" binding:"omitempty,gte=1"`
	Limit  int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
	Name   string `form:"name"`
	AgeMin int    `form:"age_min" binding:"omitempty,gte=0"`
	AgeMax int    `form:"age_max" binding:"omitempty,gte=0"`
	Gender string `form:"gender"`
	Mine   bool   `form:"mine"`
}

// StatusRequest is used by the report and sighting status endpoints.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PostUpdateRequest is used for POST /reports/:id/updates
type PostUpdateRequest struct {
	Content    string `json:"content" binding:"required"`
	IsOfficial bool   `json:"is_official"`
}
