package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lost-persons/internal/domain/conversation"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type conversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) ConversationRepository {
	return &conversationRepository{db: db}
}

const conversationColumns = `id, report_id, report_code, report_name, participants, participant_key,
        last_message_content, last_message_sender_id, last_message_at, created_at, updated_at`

func scanConversation(row rowScanner) (conversation.Conversation, error) {
	var (
		c            conversation.Conversation
		participants []byte
		lastContent  sql.NullString
		lastSender   uuid.NullUUID
		lastAt       sql.NullTime
	)
	err := row.Scan(
		&c.ID,
		&c.ReportID,
		&c.ReportCode,
		&c.ReportName,
		&participants,
		&c.ParticipantKey,
		&lastContent,
		&lastSender,
		&lastAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if c.Participants, err = unmarshalUUIDs(participants); err != nil {
		return conversation.Conversation{}, fmt.Errorf("decode participants: %w", err)
	}
	if lastAt.Valid {
		c.LastMessage = &conversation.LastMessage{
			Content:   lastContent.String,
			SenderID:  lastSender.UUID,
			CreatedAt: lastAt.Time,
		}
	}
	return c, nil
}

func (r *conversationRepository) GetOrCreate(ctx context.Context, c *conversation.Conversation) (bool, error) {
	participants, err := marshalUUIDs(c.Participants)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO conversations (id, report_id, report_code, report_name, participants, participant_key, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (report_id, participant_key) DO NOTHING
    `,
		c.ID,
		c.ReportID,
		c.ReportCode,
		c.ReportName,
		string(participants),
		c.ParticipantKey,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 1 {
		return true, nil
	}

	existing, err := scanConversation(r.db.QueryRowContext(ctx, `
        SELECT `+conversationColumns+`
        FROM conversations
        WHERE report_id = $1 AND participant_key = $2
    `, c.ReportID, c.ParticipantKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, lperrors.ErrConflict
		}
		return false, err
	}
	*c = existing
	return false, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	c, err := scanConversation(r.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conversation.Conversation{}, lperrors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *conversationRepository) GetReportConversations(ctx context.Context, reportID uuid.UUID) ([]conversation.Conversation, error) {
	return r.query(ctx, `
        SELECT `+conversationColumns+`
        FROM conversations
        WHERE report_id = $1
        ORDER BY created_at ASC, id ASC
    `, reportID)
}

func (r *conversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID, reportCode string) ([]conversation.Conversation, error) {
	member := `["` + userID.String() + `"]`
	if reportCode != "" {
		return r.query(ctx, `
            SELECT `+conversationColumns+`
            FROM conversations
            WHERE participants @> $1::jsonb AND report_code = $2
            ORDER BY updated_at DESC
        `, member, reportCode)
	}
	return r.query(ctx, `
        SELECT `+conversationColumns+`
        FROM conversations
        WHERE participants @> $1::jsonb
        ORDER BY updated_at DESC
    `, member)
}

func (r *conversationRepository) query(ctx context.Context, q string, args ...interface{}) ([]conversation.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []conversation.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *conversationRepository) UpdateParticipants(ctx context.Context, c conversation.Conversation, previousKey string) error {
	participants, err := marshalUUIDs(c.Participants)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE conversations
        SET participants = $1, participant_key = $2, updated_at = $3
        WHERE id = $4 AND participant_key = $5
    `, string(participants), c.ParticipantKey, time.Now().UTC(), c.ID, previousKey)
	if err != nil {
		// The widened set may collide with another conversation of the same report.
		if isUniqueViolation(err) {
			return lperrors.ErrConflict
		}
		return err
	}
	return expectAffected(res, lperrors.ErrConflict)
}

func (r *conversationRepository) SetLastMessage(ctx context.Context, conversationID uuid.UUID, last conversation.LastMessage) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE conversations
        SET last_message_content = $1, last_message_sender_id = $2, last_message_at = $3, updated_at = $3
        WHERE id = $4
    `, last.Content, last.SenderID, last.CreatedAt, conversationID)
	if err != nil {
		return err
	}
	return expectAffected(res, lperrors.ErrNotFound)
}
