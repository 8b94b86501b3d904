package database

import (
	"context"
	"testing"

	"lost-persons/internal/domain/user"
	"lost-persons/internal/repository/memory"
	"lost-persons/pkg/logger"
)

func TestSeedDevelopmentIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first, err := SeedDevelopment(ctx, store, logger.NewNop())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if first.AdminUser.Role != user.RoleAdmin {
		t.Fatalf("expected admin role, got %q", first.AdminUser.Role)
	}
	if len(first.TestUsers) != 3 || len(first.Reports) != 1 || len(first.Messages) != 3 {
		t.Fatalf("unexpected seed result: users=%d reports=%d messages=%d",
			len(first.TestUsers), len(first.Reports), len(first.Messages))
	}

	conv, err := store.Conversations().GetByID(ctx, first.Conversations[0].ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.LastMessage == nil || conv.LastMessage.Content != first.Messages[2].Content {
		t.Fatalf("last message not recorded: %+v", conv.LastMessage)
	}

	second, err := SeedDevelopment(ctx, store, logger.NewNop())
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if second.AdminUser.ID != first.AdminUser.ID || second.Reports[0].ID != first.Reports[0].ID {
		t.Fatalf("reseed must reuse existing rows")
	}
	if len(second.Messages) != 0 {
		t.Fatalf("reseed must not duplicate messages, got %d", len(second.Messages))
	}

	ids, err := store.Users().ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("expected 4 users, got %d", len(ids))
	}
}

func TestSeedProductionOnlyCreatesAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	admin, err := SeedProduction(ctx, store, " Ops@Example.com ", "s3cret!", logger.NewNop())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if admin.Email != "ops@example.com" {
		t.Fatalf("expected normalized email, got %q", admin.Email)
	}
	ids, _ := store.Users().ListUserIDs(ctx)
	if len(ids) != 1 {
		t.Fatalf("expected only the admin, got %d users", len(ids))
	}
}
