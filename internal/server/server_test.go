package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lost-persons/config"
	"lost-persons/internal/handler"
	"lost-persons/internal/proxy"
	"lost-persons/internal/redis"
	"lost-persons/internal/repository/memory"
	"lost-persons/internal/services"
	"lost-persons/pkg/logger"

	"github.com/alicebob/miniredis/v2"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type testAPI struct {
	handler http.Handler
	worker  *services.OutboxWorker
}

func newTestAPI(t *testing.T, messageLimit int) *testAPI {
	t.Helper()
	cfg := &config.Config{
		AppPort:            "0",
		AppMode:            TestMode,
		JWTSecret:          "test-secret",
		JWTExpiryHours:     1,
		CORSAllowedOrigins: []string{"*"},
	}
	log := logger.NewNop()

	mr := miniredis.RunT(t)
	client := redis.NewClient(redis.Config{Host: mr.Host(), Port: mr.Port()})
	t.Cleanup(func() { _ = client.Close() })
	limits := redis.DefaultRateLimitConfig()
	limits.MessageLimit = messageLimit
	limiter := redis.NewRateLimiter(client, limits)

	store := memory.NewStore()
	access := proxy.NewAccessControl()
	directory := services.NewDirectory(store.Users(), redis.NewCacheStore(client, time.Minute), log)
	notifications := services.NewNotificationService(store, log, 4)
	conversations := services.NewConversationService(store, directory, access, log)
	authService := services.NewAuthService(store.Users(), directory, cfg)

	srv := New(cfg, log)
	srv.SetupRoutes(&Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Reports:       handler.NewReportHandler(services.NewReportService(store, directory, access, notifications, log)),
		Sightings:     handler.NewSightingHandler(services.NewSightingService(store, directory, access, notifications, log)),
		Conversations: handler.NewConversationHandler(conversations),
		Messages:      handler.NewMessageHandler(services.NewMessageService(store, conversations, directory, notifications, log)),
		Notifications: handler.NewNotificationHandler(notifications),
		Users:         handler.NewUserHandler(services.NewUserService(store.Users(), directory, access)),
		Uploads:       handler.NewUploadHandler(services.NewUploadService(nil)),
	}, authService, limiter, store)

	return &testAPI{
		handler: srv.Handler(),
		worker:  services.NewOutboxWorker(store.Outbox(), notifications, log, time.Hour, 10),
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

func (a *testAPI) register(t *testing.T, name, email string) services.AuthResponse {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: %d %+v", email, status, env)
	}
	return decode[services.AuthResponse](t, env)
}

func TestReportMessagingFlow(t *testing.T) {
	api := newTestAPI(t, 100)
	alice := api.register(t, "Alice", "alice@example.com")
	bob := api.register(t, "Bob", "BOB@example.com")

	status, env := api.do(t, http.MethodPost, "/v1/reports", alice.AccessToken, map[string]any{
		"report_id": "MP-100",
		"name":      "Jane Doe",
		"age":       31,
		"phone":     "+15550100",
		"gender":    "Female",
		"last_seen": map[string]any{"address": "Main St", "coordinates": []float64{-73.98, 40.75}},
	})
	if status != http.StatusCreated {
		t.Fatalf("create report: %d %+v", status, env)
	}
	rep := decode[services.ReportView](t, env)
	if rep.ReportCode != "MP-100" || rep.Status != "active" {
		t.Fatalf("unexpected report %+v", rep)
	}

	if done, err := api.worker.ProcessBatch(context.Background()); err != nil || done != 1 {
		t.Fatalf("outbox: done=%d err=%v", done, err)
	}
	status, env = api.do(t, http.MethodGet, "/v1/notifications", bob.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list notifications: %d", status)
	}
	if got := decode[[]services.NotificationView](t, env); len(got) != 1 || got[0].Kind != "report" {
		t.Fatalf("expected broadcast notification for bob, got %+v", got)
	}

	status, env = api.do(t, http.MethodGet, "/v1/reports/"+rep.ID, bob.AccessToken, nil)
	if status != http.StatusForbidden || env.Code != "FORBIDDEN" {
		t.Fatalf("expected forbidden report view, got %d %+v", status, env)
	}

	status, env = api.do(t, http.MethodPost, "/v1/messages", bob.AccessToken, map[string]string{
		"report_id": "MP-100", "content": "I think I saw her",
	})
	if status != http.StatusCreated {
		t.Fatalf("send: %d %+v", status, env)
	}
	msg := decode[services.MessageView](t, env)

	status, env = api.do(t, http.MethodGet, "/v1/messages/"+msg.ConversationID, alice.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list messages: %d %+v", status, env)
	}
	msgs := decode[[]services.MessageView](t, env)
	if len(msgs) != 1 || msgs[0].Content != "I think I saw her" || msgs[0].Sender.Name != "Bob" {
		t.Fatalf("unexpected messages %+v", msgs)
	}

	status, env = api.do(t, http.MethodGet, "/v1/conversations?report_id=MP-100", alice.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list conversations: %d", status)
	}
	convs := decode[[]services.ConversationView](t, env)
	if len(convs) != 1 || convs[0].LastMessage == nil || convs[0].LastMessage.Content != "I think I saw her" {
		t.Fatalf("unexpected conversations %+v", convs)
	}

	status, env = api.do(t, http.MethodGet, "/v1/notifications", alice.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("alice notifications: %d", status)
	}
	inbox := decode[[]services.NotificationView](t, env)
	if len(inbox) != 2 || inbox[0].Kind != "message" {
		t.Fatalf("expected message notification first, got %+v", inbox)
	}

	status, env = api.do(t, http.MethodPatch, "/v1/notifications/"+inbox[0].ID+"/read", bob.AccessToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("foreign mark read: expected 404, got %d %+v", status, env)
	}
	status, env = api.do(t, http.MethodPatch, "/v1/notifications/"+inbox[0].ID+"/read", alice.AccessToken, nil)
	if status != http.StatusOK || !decode[services.NotificationView](t, env).Read {
		t.Fatalf("mark read: %d %+v", status, env)
	}
}

func TestResolveConversationStatusCodes(t *testing.T) {
	api := newTestAPI(t, 100)
	alice := api.register(t, "Alice", "alice@example.com")
	bob := api.register(t, "Bob", "bob@example.com")

	status, _ := api.do(t, http.MethodPost, "/v1/reports", alice.AccessToken, map[string]any{
		"report_id": "MP-7", "name": "John", "age": 70, "phone": "1", "gender": "Male",
	})
	if status != http.StatusCreated {
		t.Fatalf("create report: %d", status)
	}

	body := map[string]any{"report_id": "MP-7", "participants": []string{bob.User.ID}}
	status, env := api.do(t, http.MethodPost, "/v1/conversations", alice.AccessToken, body)
	if status != http.StatusCreated {
		t.Fatalf("first resolve: %d %+v", status, env)
	}
	first := decode[services.ConversationView](t, env)

	status, env = api.do(t, http.MethodPost, "/v1/conversations", alice.AccessToken, body)
	if status != http.StatusOK || decode[services.ConversationView](t, env).ID != first.ID {
		t.Fatalf("second resolve: %d %+v", status, env)
	}

	status, _ = api.do(t, http.MethodPost, "/v1/conversations", alice.AccessToken, map[string]any{"report_id": "MP-7", "participants": []string{"nope"}})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed participant, got %d", status)
	}
}

func TestAuthAndOperationalEndpoints(t *testing.T) {
	api := newTestAPI(t, 100)

	if status, _ := api.do(t, http.MethodGet, "/v1/notifications", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if status, _ := api.do(t, http.MethodGet, "/v1/notifications", "garbage", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", status)
	}

	alice := api.register(t, "Alice", "alice@example.com")
	status, env := api.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name": "Other", "email": "ALICE@example.com", "password": "secret123",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d %+v", status, env)
	}

	status, env = api.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d %+v", status, env)
	}
	status, env = api.do(t, http.MethodGet, "/v1/auth/validate", alice.AccessToken, nil)
	if status != http.StatusOK || decode[services.UserInfo](t, env).Email != "alice@example.com" {
		t.Fatalf("validate: %d %+v", status, env)
	}

	if status, _ := api.do(t, http.MethodGet, "/v1/users", alice.AccessToken, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 listing users as non-admin, got %d", status)
	}
	if status, env := api.do(t, http.MethodPost, "/v1/uploads/presign", alice.AccessToken, map[string]any{
		"file_name": "a.png", "content_type": "image/png", "file_size": 10,
	}); status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without s3, got %d %+v", status, env)
	}

	if status, _ := api.do(t, http.MethodGet, "/ping", "", nil); status != http.StatusOK {
		t.Fatalf("ping: %d", status)
	}
	if status, _ := api.do(t, http.MethodGet, "/health", "", nil); status != http.StatusOK {
		t.Fatalf("health: %d", status)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("lost_persons_http_requests_total")) {
		t.Fatalf("metrics endpoint missing request counter")
	}
}

func TestMessageRateLimit(t *testing.T) {
	api := newTestAPI(t, 2)
	alice := api.register(t, "Alice", "alice@example.com")
	status, _ := api.do(t, http.MethodPost, "/v1/reports", alice.AccessToken, map[string]any{
		"report_id": "MP-9", "name": "John", "age": 70, "phone": "1", "gender": "Male",
	})
	if status != http.StatusCreated {
		t.Fatalf("create report: %d", status)
	}

	for i := 0; i < 2; i++ {
		if status, env := api.do(t, http.MethodPost, "/v1/messages", alice.AccessToken, map[string]string{"report_id": "MP-9", "content": "note"}); status != http.StatusCreated {
			t.Fatalf("send %d: %d %+v", i, status, env)
		}
	}
	status, env := api.do(t, http.MethodPost, "/v1/messages", alice.AccessToken, map[string]string{"report_id": "MP-9", "content": "note"})
	if status != http.StatusTooManyRequests || env.Code != "RATE_LIMITED" {
		t.Fatalf("expected 429, got %d %+v", status, env)
	}
}
