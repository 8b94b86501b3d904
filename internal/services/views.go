package services

import (
	"time"

	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/domain/message"
	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/sighting"

	"github.com/google/uuid"
)

const unknownName = "Unknown"

type ParticipantView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type LastMessageView struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationView struct {
	ID           string            `json:"id"`
	ReportID     string            `json:"report_id"`
	ReportCode   string            `json:"report_code"`
	ReportName   string            `json:"report_name"`
	Participants []ParticipantView `json:"participants"`
	LastMessage  *LastMessageView  `json:"last_message"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type MessageView struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	ReportID       string          `json:"report_id"`
	ReportCode     string          `json:"report_code"`
	Sender         ParticipantView `json:"sender"`
	Content        string          `json:"content"`
	CreatedAt      time.Time       `json:"created_at"`
}

type NotificationView struct {
	ID             string            `json:"id"`
	Message        string            `json:"message"`
	Kind           notification.Kind `json:"kind"`
	ReportID       string            `json:"report_id,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	ActorName      string            `json:"actor_name,omitempty"`
	Read           bool              `json:"read"`
	CreatedAt      time.Time         `json:"created_at"`
}

func participantView(id uuid.UUID, names map[uuid.UUID]Identity) ParticipantView {
	if ident, ok := names[id]; ok {
		return ParticipantView{ID: id.String(), Name: ident.Name, Email: ident.Email}
	}
	return ParticipantView{ID: id.String(), Name: unknownName}
}

// toConversationView labels participants from names. When self is set, that participant is shown as "You".
func toConversationView(c conversation.Conversation, names map[uuid.UUID]Identity, self uuid.UUID) ConversationView {
	view := ConversationView{
		ID:           c.ID.String(),
		ReportID:     c.ReportID.String(),
		ReportCode:   c.ReportCode,
		ReportName:   c.ReportName,
		Participants: make([]ParticipantView, 0, len(c.Participants)),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	for _, id := range c.Participants {
		p := participantView(id, names)
		if self != uuid.Nil && id == self {
			p.Name = "You"
		}
		view.Participants = append(view.Participants, p)
	}
	if c.LastMessage != nil {
		view.LastMessage = &LastMessageView{
			Content:   c.LastMessage.Content,
			SenderID:  c.LastMessage.SenderID.String(),
			CreatedAt: c.LastMessage.CreatedAt,
		}
	}
	return view
}

func toMessageView(m message.Message, sender ParticipantView) MessageView {
	return MessageView{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		ReportID:       m.ReportID.String(),
		ReportCode:     m.ReportCode,
		Sender:         sender,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func ToNotificationView(n notification.Notification) NotificationView {
	view := NotificationView{
		ID:        n.ID.String(),
		Message:   n.Message,
		Kind:      n.Kind,
		ActorName: n.ActorName.String,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.ReportID.Valid {
		view.ReportID = n.ReportID.UUID.String()
	}
	if n.ConversationID.Valid {
		view.ConversationID = n.ConversationID.UUID.String()
	}
	return view
}

type PointView struct {
	Longitude float64 `json:"lng"`
	Latitude  float64 `json:"lat"`
}

type LastSeenView struct {
	DateTime    *time.Time `json:"date_time,omitempty"`
	Address     string     `json:"address"`
	Coordinates PointView  `json:"coordinates"`
}

type ReportView struct {
	ID                 string          `json:"id"`
	ReportCode         string          `json:"report_id"`
	Name               string          `json:"name"`
	Age                int             `json:"age"`
	Phone              string          `json:"phone"`
	Gender             report.Gender   `json:"gender"`
	LastSeen           LastSeenView    `json:"last_seen"`
	Description        string          `json:"description,omitempty"`
	Photos             []string        `json:"photos"`
	Videos             []string        `json:"videos"`
	Weight             string          `json:"weight,omitempty"`
	Height             string          `json:"height,omitempty"`
	HairColor          string          `json:"hair_color,omitempty"`
	EyeColor           string          `json:"eye_color,omitempty"`
	Markup             string          `json:"markup,omitempty"`
	SkinColor          string          `json:"skin_color,omitempty"`
	PoliceReportNumber string          `json:"police_report_number,omitempty"`
	Bonus              string          `json:"bonus,omitempty"`
	CreatedBy          ParticipantView `json:"created_by"`
	Status             report.Status   `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type UpdateView struct {
	ID         string          `json:"id"`
	ReportID   string          `json:"report_id"`
	Author     ParticipantView `json:"author"`
	Content    string          `json:"content"`
	IsOfficial bool            `json:"is_official"`
	CreatedAt  time.Time       `json:"created_at"`
}

type SightingContactView struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type SightingView struct {
	ID          string              `json:"id"`
	ReportID    string              `json:"report_id"`
	Description string              `json:"description"`
	DateTime    time.Time           `json:"date_time"`
	Address     string              `json:"address,omitempty"`
	Coordinates *PointView          `json:"coordinates,omitempty"`
	Photos      []string            `json:"photos"`
	CreatedBy   ParticipantView     `json:"created_by"`
	ContactInfo SightingContactView `json:"contact_info"`
	Status      sighting.Status     `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func toReportView(r report.Report, creator ParticipantView) ReportView {
	view := ReportView{
		ID:         r.ID.String(),
		ReportCode: r.ReportCode,
		Name:       r.Name,
		Age:        r.Age,
		Phone:      r.Phone,
		Gender:     r.Gender,
		LastSeen: LastSeenView{
			Address:     r.LastSeen.Address,
			Coordinates: PointView{Longitude: r.LastSeen.Coordinates.Longitude, Latitude: r.LastSeen.Coordinates.Latitude},
		},
		Description:        r.Description,
		Photos:             nonNil(r.Photos),
		Videos:             nonNil(r.Videos),
		Weight:             r.Weight,
		Height:             r.Height,
		HairColor:          r.HairColor,
		EyeColor:           r.EyeColor,
		Markup:             r.Markup,
		SkinColor:          r.SkinColor,
		PoliceReportNumber: r.PoliceReportNumber,
		Bonus:              r.Bonus,
		CreatedBy:          creator,
		Status:             r.Status,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if !r.LastSeen.DateTime.IsZero() {
		seen := r.LastSeen.DateTime
		view.LastSeen.DateTime = &seen
	}
	return view
}

func toUpdateView(u report.Update, names map[uuid.UUID]Identity) UpdateView {
	return UpdateView{
		ID:         u.ID.String(),
		ReportID:   u.ReportID.String(),
		Author:     participantView(u.AuthorID, names),
		Content:    u.Content,
		IsOfficial: u.IsOfficial,
		CreatedAt:  u.CreatedAt,
	}
}

func toSightingView(s sighting.Sighting, author ParticipantView) SightingView {
	view := SightingView{
		ID:          s.ID.String(),
		ReportID:    s.ReportID.String(),
		Description: s.Description,
		DateTime:    s.Location.DateTime,
		Address:     s.Location.Address,
		Photos:      nonNil(s.Photos),
		CreatedBy:   author,
		ContactInfo: SightingContactView{
			Name:  s.ContactInfo.Name,
			Phone: s.ContactInfo.Phone,
			Email: s.ContactInfo.Email,
		},
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Location.Coordinates != nil {
		view.Coordinates = &PointView{Longitude: s.Location.Coordinates.Longitude, Latitude: s.Location.Coordinates.Latitude}
	}
	return view
}
