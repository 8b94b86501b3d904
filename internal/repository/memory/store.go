// Package memory is an in-process Store used for local development and tests.
package memory

import (
	"context"
	"sync"

	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/domain/message"
	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/outbox"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/sighting"
	"lost-persons/internal/domain/user"
	"lost-persons/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	users         map[uuid.UUID]user.User
	reports       map[uuid.UUID]report.Report
	updates       []report.Update
	sightings     map[uuid.UUID]sighting.Sighting
	conversations map[uuid.UUID]conversation.Conversation
	messages      []message.Message
	notifications []notification.Notification
	outbox        []outbox.OutboxEvent
}

func newState() *state {
	return &state{
		users:         make(map[uuid.UUID]user.User),
		reports:       make(map[uuid.UUID]report.Report),
		sightings:     make(map[uuid.UUID]sighting.Sighting),
		conversations: make(map[uuid.UUID]conversation.Conversation),
	}
}

// Store keeps every aggregate behind one RWMutex. Transactions are serialized
// through txMu. Writes made inside a transaction are journaled and undone on
// rollback; writes made outside it are never touched.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) Users() repository.UserRepository                 { return &userRepository{s: s} }
func (s *Store) Reports() repository.ReportRepository             { return &reportRepository{s: s} }
func (s *Store) Sightings() repository.SightingRepository         { return &sightingRepository{s: s} }
func (s *Store) Conversations() repository.ConversationRepository { return &conversationRepository{s: s} }
func (s *Store) Messages() repository.MessageRepository           { return &messageRepository{s: s} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepository{s: s} }
func (s *Store) Outbox() repository.OutboxRepository              { return &outboxRepository{s: s} }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{}
	if err := fn(txStore{Store: s, j: j}); err != nil {
		s.mu.Lock()
		j.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// txStore is handed to WithTx callbacks; nested WithTx joins the running transaction.
type txStore struct {
	*Store
	j *journal
}

func (t txStore) Users() repository.UserRepository         { return &userRepository{s: t.Store, j: t.j} }
func (t txStore) Reports() repository.ReportRepository     { return &reportRepository{s: t.Store, j: t.j} }
func (t txStore) Sightings() repository.SightingRepository { return &sightingRepository{s: t.Store, j: t.j} }
func (t txStore) Conversations() repository.ConversationRepository {
	return &conversationRepository{s: t.Store, j: t.j}
}
func (t txStore) Messages() repository.MessageRepository { return &messageRepository{s: t.Store, j: t.j} }
func (t txStore) Notifications() repository.NotificationRepository {
	return &notificationRepository{s: t.Store, j: t.j}
}
func (t txStore) Outbox() repository.OutboxRepository { return &outboxRepository{s: t.Store, j: t.j} }

func (t txStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

// journal holds the undo steps of one transaction. Steps are recorded and
// replayed while Store.mu is held for writing.
type journal struct {
	undo []func()
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// keepKey records the current value of m[key], or its absence.
func keepKey[K comparable, V any](j *journal, m map[K]V, key K) {
	if j == nil {
		return
	}
	old, existed := m[key]
	j.undo = append(j.undo, func() {
		if existed {
			m[key] = old
		} else {
			delete(m, key)
		}
	})
}

// dropAppended records that the element matching same is about to be appended.
func dropAppended[T any](j *journal, items *[]T, same func(T) bool) {
	if j == nil {
		return
	}
	j.undo = append(j.undo, func() {
		for i, it := range *items {
			if same(it) {
				*items = append((*items)[:i], (*items)[i+1:]...)
				return
			}
		}
	})
}

// keepItem records old as the value to restore for the element matching same.
func keepItem[T any](j *journal, items *[]T, old T, same func(T) bool) {
	if j == nil {
		return
	}
	j.undo = append(j.undo, func() {
		for i, it := range *items {
			if same(it) {
				(*items)[i] = old
				return
			}
		}
	})
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneUUIDs(in []uuid.UUID) []uuid.UUID {
	if in == nil {
		return nil
	}
	return append([]uuid.UUID(nil), in...)
}
