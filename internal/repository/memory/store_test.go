package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/domain/message"
	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/repository"
	"lost-persons/internal/repository/memory"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

var _ repository.Store = (*memory.Store)(nil)

func TestGetOrCreateReturnsSameConversationForEqualSets(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reportID := uuid.New()
	a, b := uuid.New(), uuid.New()

	first := conversation.New(reportID, "R-1", "Jane", a, b)
	created, err := store.Conversations().GetOrCreate(ctx, &first)
	if err != nil || !created {
		t.Fatalf("expected creation, got created=%v err=%v", created, err)
	}

	second := conversation.New(reportID, "R-1", "Jane", b, a, a)
	created, err = store.Conversations().GetOrCreate(ctx, &second)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if created {
		t.Fatalf("expected existing conversation to be reused")
	}
	if second.ID != first.ID {
		t.Fatalf("expected id %s, got %s", first.ID, second.ID)
	}
}

func TestGetOrCreateConcurrentCallersShareOneConversation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reportID := uuid.New()
	a, b := uuid.New(), uuid.New()

	const workers = 16
	ids := make([]uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := conversation.New(reportID, "R-1", "Jane", a, b)
			if _, err := store.Conversations().GetOrCreate(ctx, &c); err != nil {
				t.Errorf("GetOrCreate failed: %v", err)
			}
			ids[i] = c.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("expected a single conversation, got %s and %s", ids[0], id)
		}
	}
	convs, _ := store.Conversations().GetReportConversations(ctx, reportID)
	if len(convs) != 1 {
		t.Fatalf("expected 1 stored conversation, got %d", len(convs))
	}
}

func TestUpdateParticipantsRejectsStaleKey(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	conv := conversation.New(uuid.New(), "R-1", "Jane", a)
	if _, err := store.Conversations().GetOrCreate(ctx, &conv); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	withB := conv.WithParticipant(b)
	if err := store.Conversations().UpdateParticipants(ctx, withB, conv.ParticipantKey); err != nil {
		t.Fatalf("UpdateParticipants failed: %v", err)
	}

	withC := conv.WithParticipant(c)
	err := store.Conversations().UpdateParticipants(ctx, withC, conv.ParticipantKey)
	if !errors.Is(err, lperrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx repository.Store) error {
		rep := report.Report{ReportCode: "R-1", Name: "Jane", CreatedBy: uuid.New(), Status: report.StatusActive}
		if err := tx.Reports().Create(ctx, &rep); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.Reports().GetByCode(ctx, "R-1"); !errors.Is(err, lperrors.ErrNotFound) {
		t.Fatalf("expected report to be rolled back, got %v", err)
	}
}

func TestWithTxRollbackKeepsWritesMadeOutsideTheTransaction(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	owner := uuid.New()
	boom := errors.New("boom")

	existing := notification.Notification{UserID: owner, Message: "before", Kind: notification.KindReport}
	if err := store.Notifications().Create(ctx, &existing); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := store.WithTx(ctx, func(tx repository.Store) error {
		inside := notification.Notification{UserID: owner, Message: "inside", Kind: notification.KindMessage}
		if err := tx.Notifications().Create(ctx, &inside); err != nil {
			return err
		}
		if _, err := tx.Notifications().MarkRead(ctx, existing.ID, owner); err != nil {
			return err
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			outside := notification.Notification{UserID: owner, Message: "outside", Kind: notification.KindSighting}
			if err := store.Notifications().Create(ctx, &outside); err != nil {
				t.Errorf("concurrent create: %v", err)
			}
		}()
		wg.Wait()
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := store.Notifications().GetUserNotifications(ctx, owner, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the committed notifications to survive, got %+v", got)
	}
	if got[0].Message != "outside" || got[1].Message != "before" {
		t.Fatalf("unexpected notifications after rollback: %+v", got)
	}
	if got[1].Read {
		t.Fatalf("read flag set inside the transaction must be undone")
	}
}

func TestMessagesKeepAppendOrderOnEqualTimestamps(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	conv := conversation.New(uuid.New(), "R-1", "Jane", uuid.New())
	if _, err := store.Conversations().GetOrCreate(ctx, &conv); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	at := time.Now().UTC()
	for _, content := range []string{"first", "second", "third"} {
		m := message.Message{ConversationID: conv.ID, SenderID: uuid.New(), Content: content, CreatedAt: at}
		if err := store.Messages().Create(ctx, &m); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	msgs, err := store.Messages().GetConversationMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversationMessages failed: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Content != "first" || msgs[2].Content != "third" {
		t.Fatalf("unexpected order: %+v", msgs)
	}
}

func TestMarkReadHidesForeignNotifications(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	owner, stranger := uuid.New(), uuid.New()

	n := notification.Notification{UserID: owner, Message: "hello", Kind: notification.KindReport}
	if err := store.Notifications().Create(ctx, &n); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.Notifications().MarkRead(ctx, n.ID, stranger); !errors.Is(err, lperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stranger, got %v", err)
	}
	got, err := store.Notifications().MarkRead(ctx, n.ID, owner)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if !got.Read {
		t.Fatalf("expected notification to be read")
	}
}
