package repository

import (
	"context"
	"database/sql"
)

// PostgresStore wires the SQL repositories to one DBTX. Inside WithTx the DBTX is a *sql.Tx.
type PostgresStore struct {
	db DBTX
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Users() UserRepository                 { return NewUserRepository(s.db) }
func (s *PostgresStore) Reports() ReportRepository             { return NewReportRepository(s.db) }
func (s *PostgresStore) Sightings() SightingRepository         { return NewSightingRepository(s.db) }
func (s *PostgresStore) Conversations() ConversationRepository { return NewConversationRepository(s.db) }
func (s *PostgresStore) Messages() MessageRepository           { return NewMessageRepository(s.db) }
func (s *PostgresStore) Notifications() NotificationRepository { return NewNotificationRepository(s.db) }
func (s *PostgresStore) Outbox() OutboxRepository              { return NewOutboxRepository(s.db) }

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return WithTx(ctx, s.db, func(tx DBTX) error {
		return fn(&PostgresStore{db: tx})
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if pinger, ok := s.db.(interface{ PingContext(context.Context) error }); ok {
		return pinger.PingContext(ctx)
	}
	_, err := s.db.ExecContext(ctx, `SELECT 1`)
	return err
}
