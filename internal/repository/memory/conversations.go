package memory

import (
	"context"
	"sort"
	"time"

	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/domain/message"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type conversationRepository struct {
	s *Store
	j *journal
}

func storedConversation(c conversation.Conversation) conversation.Conversation {
	c.Participants = cloneUUIDs(c.Participants)
	if c.LastMessage != nil {
		last := *c.LastMessage
		c.LastMessage = &last
	}
	return c
}

func (r *conversationRepository) GetOrCreate(ctx context.Context, c *conversation.Conversation) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.conversations {
		if existing.ReportID == c.ReportID && existing.ParticipantKey == c.ParticipantKey {
			*c = storedConversation(existing)
			return false, nil
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	keepKey(r.j, r.s.data.conversations, c.ID)
	r.s.data.conversations[c.ID] = storedConversation(*c)
	return true, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.data.conversations[id]
	if !ok {
		return conversation.Conversation{}, lperrors.ErrNotFound
	}
	return storedConversation(c), nil
}

func (r *conversationRepository) GetReportConversations(ctx context.Context, reportID uuid.UUID) ([]conversation.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []conversation.Conversation
	for _, c := range r.s.data.conversations {
		if c.ReportID == reportID {
			out = append(out, storedConversation(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *conversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID, reportCode string) ([]conversation.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []conversation.Conversation
	for _, c := range r.s.data.conversations {
		if reportCode != "" && c.ReportCode != reportCode {
			continue
		}
		if c.HasParticipant(userID) {
			out = append(out, storedConversation(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *conversationRepository) UpdateParticipants(ctx context.Context, c conversation.Conversation, previousKey string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.data.conversations[c.ID]
	if !ok || current.ParticipantKey != previousKey {
		return lperrors.ErrConflict
	}
	for id, other := range r.s.data.conversations {
		if id != c.ID && other.ReportID == current.ReportID && other.ParticipantKey == c.ParticipantKey {
			return lperrors.ErrConflict
		}
	}
	current.Participants = cloneUUIDs(c.Participants)
	current.ParticipantKey = c.ParticipantKey
	current.UpdatedAt = time.Now().UTC()
	keepKey(r.j, r.s.data.conversations, c.ID)
	r.s.data.conversations[c.ID] = current
	return nil
}

func (r *conversationRepository) SetLastMessage(ctx context.Context, conversationID uuid.UUID, last conversation.LastMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.data.conversations[conversationID]
	if !ok {
		return lperrors.ErrNotFound
	}
	c.LastMessage = &last
	c.UpdatedAt = last.CreatedAt
	keepKey(r.j, r.s.data.conversations, conversationID)
	r.s.data.conversations[conversationID] = c
	return nil
}

type messageRepository struct {
	s *Store
	j *journal
}

func (r *messageRepository) Create(ctx context.Context, m *message.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.conversations[m.ConversationID]; !ok {
		return lperrors.ErrNotFound
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	id := m.ID
	dropAppended(r.j, &r.s.data.messages, func(x message.Message) bool { return x.ID == id })
	r.s.data.messages = append(r.s.data.messages, *m)
	return nil
}

// GetConversationMessages returns the log oldest first; equal timestamps keep append order.
func (r *messageRepository) GetConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]message.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []message.Message
	for _, m := range r.s.data.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
