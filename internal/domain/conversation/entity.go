package conversation

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LastMessage is a read-optimised copy of the newest message. The message log
// stays authoritative; concurrent senders overwrite it last-write-wins.
type LastMessage struct {
	Content   string
	SenderID  uuid.UUID
	CreatedAt time.Time
}

// Conversation represents the conversations table. At most one row exists per
// (ReportID, ParticipantKey).
type Conversation struct {
	ID             uuid.UUID
	ReportID       uuid.UUID
	ReportCode     string
	ReportName     string
	Participants   []uuid.UUID
	ParticipantKey string
	LastMessage    *LastMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// New builds a conversation for the given participants, deduplicated in insertion order.
func New(reportID uuid.UUID, reportCode, reportName string, participants ...uuid.UUID) Conversation {
	now := time.Now().UTC()
	members := NormalizeParticipants(participants...)
	return Conversation{
		ID:             uuid.New(),
		ReportID:       reportID,
		ReportCode:     reportCode,
		ReportName:     reportName,
		Participants:   members,
		ParticipantKey: ParticipantKey(members),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NormalizeParticipants drops nil and duplicate ids, keeping first-seen order.
func NormalizeParticipants(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ParticipantKey is the canonical form of a participant set: sorted, deduplicated,
// comma separated. Two conversations have the same key iff their sets are equal.
func ParticipantKey(ids []uuid.UUID) string {
	members := NormalizeParticipants(ids...)
	parts := make([]string, len(members))
	for i, id := range members {
		parts[i] = id.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// WithParticipant returns a copy that includes userID, recomputing the key.
func (c Conversation) WithParticipant(userID uuid.UUID) Conversation {
	if c.HasParticipant(userID) {
		return c
	}
	members := make([]uuid.UUID, 0, len(c.Participants)+1)
	members = append(members, c.Participants...)
	members = append(members, userID)
	c.Participants = members
	c.ParticipantKey = ParticipantKey(members)
	return c
}
