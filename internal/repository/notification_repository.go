package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lost-persons/internal/domain/notification"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, user_id, message, kind, report_id, conversation_id, actor_name, read, created_at`

func scanNotification(row rowScanner) (notification.Notification, error) {
	var n notification.Notification
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Message,
		&n.Kind,
		&n.ReportID,
		&n.ConversationID,
		&n.ActorName,
		&n.Read,
		&n.CreatedAt,
	)
	return n, err
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO notifications (`+notificationColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `,
		n.ID,
		n.UserID,
		n.Message,
		n.Kind,
		n.ReportID,
		n.ConversationID,
		n.ActorName,
		n.Read,
		n.CreatedAt,
	)
	return err
}

func (r *notificationRepository) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+notificationColumns+`
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (notification.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx, `
        UPDATE notifications
        SET read = true
        WHERE id = $1 AND user_id = $2
        RETURNING `+notificationColumns,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notification.Notification{}, lperrors.ErrNotFound
		}
		return notification.Notification{}, err
	}
	return n, nil
}
