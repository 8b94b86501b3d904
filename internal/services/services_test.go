package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/user"
	"lost-persons/internal/proxy"
	"lost-persons/internal/repository"
	"lost-persons/internal/repository/memory"
	"lost-persons/internal/services"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/google/uuid"
)

type env struct {
	store         *memory.Store
	directory     *services.Directory
	notifications *services.NotificationService
	conversations *services.ConversationService
	messages      *services.MessageService
	reports       *services.ReportService
	sightings     *services.SightingService
	worker        *services.OutboxWorker
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := memory.NewStore()
	return newEnvOver(t, mem, mem)
}

// newEnvOver builds the services over store while test users are written to mem directly.
func newEnvOver(t *testing.T, mem *memory.Store, store repository.Store) *env {
	t.Helper()
	log := logger.NewNop()
	access := proxy.NewAccessControl()
	directory := services.NewDirectory(store.Users(), nil, log)
	notifications := services.NewNotificationService(store, log, 4)
	conversations := services.NewConversationService(store, directory, access, log)
	return &env{
		store:         mem,
		directory:     directory,
		notifications: notifications,
		conversations: conversations,
		messages:      services.NewMessageService(store, conversations, directory, notifications, log),
		reports:       services.NewReportService(store, directory, access, notifications, log),
		sightings:     services.NewSightingService(store, directory, access, notifications, log),
		worker:        services.NewOutboxWorker(store.Outbox(), notifications, log, time.Hour, 10),
	}
}

func (e *env) user(t *testing.T, name string, role user.Role) proxy.Actor {
	t.Helper()
	u := &user.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:6]),
		PasswordHash: "x",
		Name:         name,
		Role:         role,
	}
	if err := e.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return proxy.Actor{ID: u.ID, Role: role}
}

func (e *env) report(t *testing.T, creator proxy.Actor) services.ReportView {
	t.Helper()
	view, err := e.reports.Create(context.Background(), creator, services.ReportInput{
		Name:   "Jane Doe",
		Age:    34,
		Phone:  "+100000000",
		Gender: report.GenderFemale,
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	return view
}

func (e *env) inbox(t *testing.T, userID uuid.UUID) []notification.Notification {
	t.Helper()
	list, err := e.notifications.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return list
}

func TestResolveIsIdempotentForTheSameSet(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "alice", user.RoleUser)
	b := e.user(t, "bob", user.RoleUser)
	rep := e.report(t, a)

	first, created, err := e.conversations.Resolve(ctx, a, rep.ReportCode, []uuid.UUID{b.ID})
	if err != nil || !created {
		t.Fatalf("first resolve: created=%v err=%v", created, err)
	}
	second, created, err := e.conversations.Resolve(ctx, b, rep.ReportCode, []uuid.UUID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if created {
		t.Fatalf("expected reuse on second resolve")
	}
	if first.ID != second.ID {
		t.Fatalf("expected same conversation, got %s and %s", first.ID, second.ID)
	}
}

func TestResolveMatchesExactSetOnly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "alice", user.RoleUser)
	b := e.user(t, "bob", user.RoleUser)
	c := e.user(t, "carol", user.RoleUser)
	rep := e.report(t, a)

	pair, _, err := e.conversations.Resolve(ctx, a, rep.ReportCode, []uuid.UUID{b.ID})
	if err != nil {
		t.Fatalf("resolve pair: %v", err)
	}
	trio, created, err := e.conversations.Resolve(ctx, a, rep.ReportCode, []uuid.UUID{b.ID, c.ID})
	if err != nil {
		t.Fatalf("resolve trio: %v", err)
	}
	if !created || trio.ID == pair.ID {
		t.Fatalf("expected a distinct conversation for a superset")
	}
}

func TestResolveValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "alice", user.RoleUser)
	rep := e.report(t, a)

	if _, _, err := e.conversations.Resolve(ctx, a, rep.ReportCode, nil); !errors.Is(err, lperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty participants, got %v", err)
	}
	if _, _, err := e.conversations.Resolve(ctx, a, "MP-NOPE", []uuid.UUID{uuid.New()}); !errors.Is(err, lperrors.ErrNotFound) {
		t.Fatalf("expected not found for unknown report, got %v", err)
	}
}

func TestSendThenListEndsWithMessageAndSummary(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	sender := e.user(t, "bob", user.RoleUser)
	rep := e.report(t, creator)

	sent, err := e.messages.Send(ctx, sender, rep.ReportCode, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Sender.Name != "Unknown" || sent.Sender.ID != sender.ID.String() {
		t.Fatalf("expected non-creator sender labelled Unknown, got %+v", sent.Sender)
	}

	msgs, err := e.messages.List(ctx, sender, sent.ConversationID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	last := msgs[len(msgs)-1]
	if last.Content != "hello" || last.Sender.ID != sender.ID.String() {
		t.Fatalf("unexpected last message %+v", last)
	}

	conv, err := e.conversations.Get(ctx, sender, sent.ConversationID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.LastMessage == nil {
		t.Fatalf("expected last message summary")
	}
	if conv.LastMessage.Content != "hello" || conv.LastMessage.SenderID != sender.ID.String() || !conv.LastMessage.CreatedAt.Equal(last.CreatedAt) {
		t.Fatalf("summary %+v does not match message %+v", conv.LastMessage, last)
	}
}

func TestSendNotifiesCreatorOnlyForOtherSenders(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	sender := e.user(t, "bob", user.RoleUser)
	rep := e.report(t, creator)

	if _, err := e.messages.Send(ctx, sender, rep.ReportCode, "any news?"); err != nil {
		t.Fatalf("send: %v", err)
	}
	inbox := e.inbox(t, creator.ID)
	if len(inbox) != 1 || inbox[0].Kind != notification.KindMessage {
		t.Fatalf("expected one message notification, got %+v", inbox)
	}
	if got := inbox[0].ActorName.String; got != "bob" {
		t.Fatalf("expected actor name bob, got %q", got)
	}

	reply, err := e.messages.Send(ctx, creator, rep.ReportCode, "not yet")
	if err != nil {
		t.Fatalf("creator send: %v", err)
	}
	if reply.Sender.Name != "alice" {
		t.Fatalf("creator's send should carry their name, got %q", reply.Sender.Name)
	}
	if got := len(e.inbox(t, creator.ID)); got != 1 {
		t.Fatalf("creator's own message must not notify, have %d notifications", got)
	}
	if got := len(e.inbox(t, sender.ID)); got != 0 {
		t.Fatalf("sender must not be notified, have %d", got)
	}
}

func TestListMessagesRequiresParticipation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	sender := e.user(t, "bob", user.RoleUser)
	stranger := e.user(t, "mallory", user.RoleUser)
	admin := e.user(t, "root", user.RoleAdmin)
	rep := e.report(t, creator)

	sent, err := e.messages.Send(ctx, sender, rep.ReportCode, "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	for _, actor := range []proxy.Actor{stranger, admin} {
		if _, err := e.messages.List(ctx, actor, sent.ConversationID); !errors.Is(err, lperrors.ErrForbidden) {
			t.Fatalf("expected forbidden for non participant, got %v", err)
		}
	}
	for _, actor := range []proxy.Actor{sender, creator} {
		if _, err := e.messages.List(ctx, actor, sent.ConversationID); err != nil {
			t.Fatalf("participant %s denied: %v", actor.ID, err)
		}
	}
	if _, err := e.messages.List(ctx, sender, "not-a-uuid"); !errors.Is(err, lperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for malformed id, got %v", err)
	}
}

func TestSendJoinsExistingConversation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	first := e.user(t, "bob", user.RoleUser)
	second := e.user(t, "carol", user.RoleUser)
	rep := e.report(t, creator)

	m1, err := e.messages.Send(ctx, first, rep.ReportCode, "one")
	if err != nil {
		t.Fatalf("send one: %v", err)
	}
	m2, err := e.messages.Send(ctx, second, rep.ReportCode, "two")
	if err != nil {
		t.Fatalf("send two: %v", err)
	}
	if m1.ConversationID != m2.ConversationID {
		t.Fatalf("expected the second sender to join the existing conversation")
	}
	conv, err := e.conversations.Get(ctx, second, m2.ConversationID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(conv.Participants) != 3 {
		t.Fatalf("expected three participants, got %+v", conv.Participants)
	}
}

func TestConcurrentSendsKeepTimestampOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	senders := []proxy.Actor{creator, e.user(t, "bob", user.RoleUser), e.user(t, "carol", user.RoleUser)}
	rep := e.report(t, creator)

	if _, err := e.messages.Send(ctx, creator, rep.ReportCode, "start"); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := e.messages.Send(ctx, senders[i%len(senders)], rep.ReportCode, fmt.Sprintf("m%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent send: %v", err)
	}

	convs, err := e.conversations.ListMine(ctx, creator, rep.ReportCode)
	if err != nil || len(convs) != 1 {
		t.Fatalf("expected one conversation, got %d (err %v)", len(convs), err)
	}
	msgs, err := e.messages.List(ctx, creator, convs[0].ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 31 {
		t.Fatalf("expected 31 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("message %d is older than its predecessor", i)
		}
	}
}

func TestListMineLabelsSelf(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "alice", user.RoleUser)
	b := e.user(t, "bob", user.RoleUser)
	rep := e.report(t, a)

	if _, _, err := e.conversations.Resolve(ctx, a, rep.ReportCode, []uuid.UUID{b.ID}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	convs, err := e.conversations.ListMine(ctx, b, "")
	if err != nil || len(convs) != 1 {
		t.Fatalf("list mine: %d %v", len(convs), err)
	}
	for _, p := range convs[0].Participants {
		if p.ID == b.ID.String() && p.Name != "You" {
			t.Fatalf("expected self to be labelled You, got %q", p.Name)
		}
		if p.ID == a.ID.String() && p.Name != "alice" {
			t.Fatalf("expected alice, got %q", p.Name)
		}
	}
}

func TestReportCreationBroadcastsThroughOutbox(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	others := []proxy.Actor{e.user(t, "bob", user.RoleUser), e.user(t, "carol", user.RoleVerifiedContact)}
	rep := e.report(t, creator)

	if got := len(e.inbox(t, creator.ID)); got != 0 {
		t.Fatalf("broadcast must wait for the worker, have %d", got)
	}
	done, err := e.worker.ProcessBatch(ctx)
	if err != nil || done != 1 {
		t.Fatalf("process batch: done=%d err=%v", done, err)
	}
	for _, a := range append(others, creator) {
		inbox := e.inbox(t, a.ID)
		if len(inbox) != 1 || inbox[0].Kind != notification.KindReport {
			t.Fatalf("user %s: expected one report notification, got %+v", a.ID, inbox)
		}
		if !inbox[0].ReportID.Valid || inbox[0].ReportID.UUID.String() != rep.ID {
			t.Fatalf("notification does not reference the report")
		}
	}

	done, err = e.worker.ProcessBatch(ctx)
	if err != nil || done != 0 {
		t.Fatalf("event must be processed once: done=%d err=%v", done, err)
	}
}

func TestReportMutationsNotifyCreatorOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	admin := e.user(t, "root", user.RoleAdmin)
	rep := e.report(t, creator)

	desc := "last seen near the station"
	if _, err := e.reports.Update(ctx, creator, rep.ID, services.ReportPatch{Description: &desc}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := len(e.inbox(t, creator.ID)); got != 1 {
		t.Fatalf("after update: expected 1 notification, got %d", got)
	}

	if _, err := e.reports.SetStatus(ctx, admin, rep.ID, report.StatusResolved); err != nil {
		t.Fatalf("status: %v", err)
	}
	if got := len(e.inbox(t, creator.ID)); got != 2 {
		t.Fatalf("after status: expected 2 notifications, got %d", got)
	}
	if got := len(e.inbox(t, admin.ID)); got != 0 {
		t.Fatalf("admin must not be notified, got %d", got)
	}

	if err := e.reports.Delete(ctx, creator, rep.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := len(e.inbox(t, creator.ID)); got != 3 {
		t.Fatalf("after delete: expected 3 notifications, got %d", got)
	}
}

func TestReportPolicies(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	other := e.user(t, "bob", user.RoleUser)
	admin := e.user(t, "root", user.RoleAdmin)
	rep := e.report(t, creator)

	if _, err := e.reports.Get(ctx, other, rep.ID); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("expected forbidden view, got %v", err)
	}
	if _, err := e.reports.Get(ctx, admin, rep.ID); err != nil {
		t.Fatalf("admin view: %v", err)
	}
	name := "Someone Else"
	if _, err := e.reports.Update(ctx, other, rep.ID, services.ReportPatch{Name: &name}); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	if err := e.reports.Delete(ctx, other, rep.ID); !errors.Is(err, lperrors.ErrNotFound) {
		t.Fatalf("expected not found delete, got %v", err)
	}
	if _, err := e.reports.SetStatus(ctx, creator, rep.ID, report.StatusResolved); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("expected forbidden status change, got %v", err)
	}
	if _, err := e.reports.PostUpdate(ctx, other, rep.ID, "tip", false); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("expected forbidden update post, got %v", err)
	}
	if _, err := e.reports.PostUpdate(ctx, creator, rep.ID, "official", true); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("creator cannot post official updates, got %v", err)
	}
	if _, err := e.reports.PostUpdate(ctx, admin, rep.ID, "police notified", true); err != nil {
		t.Fatalf("admin official update: %v", err)
	}
	if got := len(e.inbox(t, creator.ID)); got != 0 {
		t.Fatalf("rejected actions must not notify, got %d", got)
	}
}

func TestReportCreateValidationAndDuplicates(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)

	_, err := e.reports.Create(ctx, creator, services.ReportInput{Name: "Jane"})
	if !errors.Is(err, lperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	in := services.ReportInput{ReportCode: "MP-1", Name: "Jane", Age: 9, Phone: "1", Gender: report.GenderFemale}
	if _, err := e.reports.Create(ctx, creator, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.reports.Create(ctx, creator, in); !errors.Is(err, lperrors.ErrConflict) {
		t.Fatalf("expected conflict for duplicate code, got %v", err)
	}
	pending, err := e.store.Outbox().GetPending(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("failed create must not leave an outbox event: %d %v", len(pending), err)
	}
}

func TestReportListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice", user.RoleUser)
	bob := e.user(t, "bob", user.RoleUser)
	for i := 0; i < 12; i++ {
		owner := alice
		if i%3 == 0 {
			owner = bob
		}
		_, err := e.reports.Create(ctx, owner, services.ReportInput{
			Name: fmt.Sprintf("Person %d", i), Age: 20 + i, Phone: "1", Gender: report.GenderMale,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := e.reports.List(ctx, alice, services.ListReportsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Pagination.Total != 12 || page.Pagination.Pages != 2 || len(page.Reports) != 10 {
		t.Fatalf("unexpected pagination %+v with %d reports", page.Pagination, len(page.Reports))
	}

	mine, err := e.reports.List(ctx, bob, services.ListReportsInput{Mine: true})
	if err != nil || mine.Pagination.Total != 4 {
		t.Fatalf("mine: total=%d err=%v", mine.Pagination.Total, err)
	}
	for _, r := range mine.Reports {
		if r.CreatedBy.Name != "bob" {
			t.Fatalf("expected creator bob, got %+v", r.CreatedBy)
		}
	}

	aged, err := e.reports.List(ctx, alice, services.ListReportsInput{AgeMin: 25, AgeMax: 27, Name: "person"})
	if err != nil || aged.Pagination.Total != 3 {
		t.Fatalf("age filter: total=%d err=%v", aged.Pagination.Total, err)
	}
}

func TestSightingNotifiesCreatorUnlessAuthor(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	creator := e.user(t, "alice", user.RoleUser)
	witness := e.user(t, "bob", user.RoleUser)
	admin := e.user(t, "root", user.RoleAdmin)
	rep := e.report(t, creator)

	in := services.SightingInput{
		Description: "seen at the market",
		DateTime:    time.Now().Add(-time.Hour),
		Coordinates: &report.Point{Longitude: 12.5, Latitude: 41.9},
	}
	sg, err := e.sightings.Create(ctx, witness, rep.ID, in)
	if err != nil {
		t.Fatalf("create sighting: %v", err)
	}
	if sg.Status != "pending" {
		t.Fatalf("expected pending, got %s", sg.Status)
	}
	inbox := e.inbox(t, creator.ID)
	if len(inbox) != 1 || inbox[0].Kind != notification.KindSighting || inbox[0].ActorName.String != "bob" {
		t.Fatalf("expected one sighting notification from bob, got %+v", inbox)
	}

	if _, err := e.sightings.Create(ctx, creator, rep.ID, in); err != nil {
		t.Fatalf("creator sighting: %v", err)
	}
	if got := len(e.inbox(t, creator.ID)); got != 1 {
		t.Fatalf("creator's own sighting must not notify, got %d", got)
	}

	list, err := e.sightings.List(ctx, rep.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("list sightings: %d %v", len(list), err)
	}

	if _, err := e.sightings.SetStatus(ctx, witness, sg.ID, "verified"); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("expected forbidden status change, got %v", err)
	}
	if _, err := e.sightings.SetStatus(ctx, admin, sg.ID, "verified"); err != nil {
		t.Fatalf("admin status change: %v", err)
	}
	desc := "edited"
	if _, err := e.sightings.Update(ctx, creator, sg.ID, services.SightingPatch{Description: &desc}); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("only the author or an admin may edit, got %v", err)
	}

	bad := in
	bad.Coordinates = &report.Point{Longitude: 200, Latitude: 0}
	if _, err := e.sightings.Create(ctx, witness, rep.ID, bad); !errors.Is(err, lperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid coordinates, got %v", err)
	}
}

func TestMarkReadOnlyByOwner(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner := e.user(t, "alice", user.RoleUser)
	other := e.user(t, "bob", user.RoleUser)

	n, err := e.notifications.Notify(ctx, owner.ID, notification.KindReport, "hello", notification.Refs{})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if _, err := e.notifications.MarkRead(ctx, n.ID.String(), other.ID); !errors.Is(err, lperrors.ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	updated, err := e.notifications.MarkRead(ctx, n.ID.String(), owner.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !updated.Read || updated.ID != n.ID {
		t.Fatalf("expected read notification, got %+v", updated)
	}
	if _, err := e.notifications.MarkRead(ctx, "bogus", owner.ID); !errors.Is(err, lperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNotifyRejectsInvalidInput(t *testing.T) {
	e := newEnv(t)
	_, err := e.notifications.Notify(context.Background(), uuid.Nil, notification.KindReport, "x", notification.Refs{})
	if !errors.Is(err, lperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for nil target, got %v", err)
	}
	_, err = e.notifications.Notify(context.Background(), uuid.New(), notification.Kind("chat"), "x", notification.Refs{})
	if !errors.Is(err, lperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown kind, got %v", err)
	}
}
