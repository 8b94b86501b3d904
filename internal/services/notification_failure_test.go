package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/user"
	"lost-persons/internal/repository"
	"lost-persons/internal/repository/memory"
	"lost-persons/internal/services"

	"github.com/google/uuid"
)

var errNotificationWrite = errors.New("notification write failed")

// failingRecipients is shared by a store and every transaction opened from it.
type failingRecipients struct {
	mu  sync.Mutex
	ids map[uuid.UUID]bool
}

func (f *failingRecipients) add(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[id] = true
}

func (f *failingRecipients) has(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[id]
}

// failingNotifyStore rejects notification writes addressed to selected users.
type failingNotifyStore struct {
	repository.Store
	failing *failingRecipients
}

func (s failingNotifyStore) Notifications() repository.NotificationRepository {
	return failingNotifications{NotificationRepository: s.Store.Notifications(), failing: s.failing}
}

func (s failingNotifyStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(failingNotifyStore{Store: tx, failing: s.failing})
	})
}

type failingNotifications struct {
	repository.NotificationRepository
	failing *failingRecipients
}

func (n failingNotifications) Create(ctx context.Context, notif *notification.Notification) error {
	if n.failing.has(notif.UserID) {
		return errNotificationWrite
	}
	return n.NotificationRepository.Create(ctx, notif)
}

func newFailingNotifyEnv(t *testing.T) (*env, *failingRecipients) {
	t.Helper()
	mem := memory.NewStore()
	failing := &failingRecipients{ids: map[uuid.UUID]bool{}}
	return newEnvOver(t, mem, failingNotifyStore{Store: mem, failing: failing}), failing
}

func TestSendSucceedsWhenCreatorNotificationFails(t *testing.T) {
	ctx := context.Background()
	e, failing := newFailingNotifyEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	sender := e.user(t, "bob", user.RoleUser)
	rep := e.report(t, creator)
	failing.add(creator.ID)

	sent, err := e.messages.Send(ctx, sender, rep.ReportCode, "is there any update?")
	if err != nil {
		t.Fatalf("send must not fail on a dropped notification: %v", err)
	}
	if got := len(e.inbox(t, creator.ID)); got != 0 {
		t.Fatalf("expected no stored notification, got %d", got)
	}

	msgs, err := e.messages.List(ctx, sender, sent.ConversationID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != sent.ID {
		t.Fatalf("message not persisted: %+v", msgs)
	}
	conv, err := e.conversations.Get(ctx, sender, sent.ConversationID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.LastMessage == nil || conv.LastMessage.Content != "is there any update?" {
		t.Fatalf("summary not written: %+v", conv.LastMessage)
	}
}

func TestReportMutationsSucceedWhenCreatorNotificationFails(t *testing.T) {
	ctx := context.Background()
	e, failing := newFailingNotifyEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	admin := e.user(t, "root", user.RoleAdmin)
	witness := e.user(t, "bob", user.RoleUser)
	rep := e.report(t, creator)
	failing.add(creator.ID)

	desc := "wearing a blue coat"
	updated, err := e.reports.Update(ctx, creator, rep.ID, services.ReportPatch{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != desc {
		t.Fatalf("update not applied: %q", updated.Description)
	}

	if _, err := e.sightings.Create(ctx, witness, rep.ID, services.SightingInput{
		Description: "seen at the station",
		DateTime:    time.Now().Add(-time.Hour),
		Coordinates: &report.Point{Longitude: 2.35, Latitude: 48.85},
	}); err != nil {
		t.Fatalf("sighting: %v", err)
	}

	if _, err := e.reports.SetStatus(ctx, admin, rep.ID, report.StatusResolved); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := e.reports.Delete(ctx, creator, rep.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := len(e.inbox(t, creator.ID)); got != 0 {
		t.Fatalf("expected every creator notification dropped, got %d", got)
	}
}

func TestBroadcastCountsOnlyDeliveredRecipients(t *testing.T) {
	ctx := context.Background()
	e, failing := newFailingNotifyEnv(t)
	users := []uuid.UUID{
		e.user(t, "alice", user.RoleUser).ID,
		e.user(t, "bob", user.RoleUser).ID,
		e.user(t, "carol", user.RoleVerifiedContact).ID,
		e.user(t, "dave", user.RoleUser).ID,
	}
	failing.add(users[2])

	delivered, err := e.notifications.Broadcast(ctx, notification.KindReport, "a new report was filed", notification.Refs{})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if delivered != len(users)-1 {
		t.Fatalf("expected %d delivered, got %d", len(users)-1, delivered)
	}
	for _, id := range users {
		want := 1
		if id == users[2] {
			want = 0
		}
		if got := len(e.inbox(t, id)); got != want {
			t.Fatalf("user %s: expected %d notifications, got %d", id, want, got)
		}
	}
}
