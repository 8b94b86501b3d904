package repository

import (
	"context"
	"time"

	"lost-persons/internal/domain/message"

	"github.com/google/uuid"
)

type messageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *message.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO messages (id, conversation_id, report_id, report_code, sender_id, content, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `,
		m.ID,
		m.ConversationID,
		m.ReportID,
		m.ReportCode,
		m.SenderID,
		m.Content,
		m.CreatedAt,
	)
	return err
}

// GetConversationMessages returns the log oldest first. seq breaks timestamp ties in insertion order.
func (r *messageRepository) GetConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]message.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, conversation_id, report_id, report_code, sender_id, content, created_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at ASC, seq ASC
    `, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []message.Message
	for rows.Next() {
		var m message.Message
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.ReportID,
			&m.ReportCode,
			&m.SenderID,
			&m.Content,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
