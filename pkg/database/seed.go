package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/domain/message"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/user"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	AdminEmail      string
	AdminPassword   string
	AdminName       string
	CreateTestUsers bool
	TestUserCount   int
	TestPassword    string
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		AdminEmail:      "admin@lostpersons.local",
		AdminPassword:   "Admin@123!",
		AdminName:       "System Admin",
		CreateTestUsers: true,
		TestUserCount:   3,
		TestPassword:    "Password@123",
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	AdminUser     user.User
	TestUsers     []user.User
	Reports       []report.Report
	Conversations []conversation.Conversation
	Messages      []message.Message
}

var testUserNames = []string{"Amara Okafor", "Liam Novak", "Sofia Reyes", "Kenji Watanabe", "Nadia Haddad"}

// Seed creates the admin account and, when configured, a small development data set.
// Users are matched by email so repeated runs do not duplicate accounts.
func Seed(ctx context.Context, store repository.Store, cfg *SeedConfig, log *logger.Logger) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}

	result := &SeedResult{}

	admin, err := ensureUser(ctx, store.Users(), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName, user.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("seed admin user: %w", err)
	}
	result.AdminUser = admin
	log.Info("admin user ready", zap.String("email", admin.Email), zap.String("id", admin.ID.String()))

	if !cfg.CreateTestUsers {
		return result, nil
	}

	for i := 0; i < cfg.TestUserCount; i++ {
		name := testUserNames[i%len(testUserNames)]
		email := fmt.Sprintf("%s.%d@lostpersons.local", strings.ToLower(strings.Fields(name)[0]), i+1)
		role := user.RoleUser
		if i == 1 {
			role = user.RoleVerifiedContact
		}
		u, err := ensureUser(ctx, store.Users(), email, cfg.TestPassword, name, role)
		if err != nil {
			return nil, fmt.Errorf("seed test user %s: %w", email, err)
		}
		result.TestUsers = append(result.TestUsers, u)
	}

	if len(result.TestUsers) < 2 {
		return result, nil
	}

	rep, created, err := seedReport(ctx, store, result.TestUsers[0])
	if err != nil {
		return nil, fmt.Errorf("seed report: %w", err)
	}
	result.Reports = append(result.Reports, rep)
	if !created {
		log.Info("sample report already present", zap.String("report_code", rep.ReportCode))
		return result, nil
	}

	conv, msgs, err := seedConversation(ctx, store, rep, result.TestUsers[0], result.TestUsers[1])
	if err != nil {
		return nil, fmt.Errorf("seed conversation: %w", err)
	}
	result.Conversations = append(result.Conversations, conv)
	result.Messages = msgs

	log.Info("database seeding completed",
		zap.Int("test_users", len(result.TestUsers)),
		zap.Int("reports", len(result.Reports)),
		zap.Int("messages", len(result.Messages)),
	)
	return result, nil
}

// SeedProduction creates or verifies the admin account only.
func SeedProduction(ctx context.Context, store repository.Store, adminEmail, adminPassword string, log *logger.Logger) (user.User, error) {
	cfg := DefaultSeedConfig()
	cfg.AdminEmail = adminEmail
	cfg.AdminPassword = adminPassword
	cfg.CreateTestUsers = false
	res, err := Seed(ctx, store, cfg, log)
	if err != nil {
		return user.User{}, err
	}
	return res.AdminUser, nil
}

// SeedDevelopment seeds the admin plus test users, a sample report and a conversation.
func SeedDevelopment(ctx context.Context, store repository.Store, log *logger.Logger) (*SeedResult, error) {
	return Seed(ctx, store, DefaultSeedConfig(), log)
}

func ensureUser(ctx context.Context, users repository.UserRepository, email, password, name string, role user.Role) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := users.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, lperrors.ErrNotFound) {
		return user.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		return user.User{}, err
	}
	return *u, nil
}

const sampleReportCode = "MP-SEED0001"

func seedReport(ctx context.Context, store repository.Store, creator user.User) (report.Report, bool, error) {
	existing, err := store.Reports().GetByCode(ctx, sampleReportCode)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, lperrors.ErrNotFound) {
		return report.Report{}, false, err
	}

	now := time.Now().UTC()
	rep := &report.Report{
		ID:         uuid.New(),
		ReportCode: sampleReportCode,
		Name:       "Daniel Mercer",
		Age:        16,
		Phone:      "+15550199",
		Gender:     report.GenderMale,
		LastSeen: report.LastSeen{
			DateTime:    now.Add(-36 * time.Hour),
			Address:     "Riverside Park, North Entrance",
			Coordinates: report.Point{Longitude: -73.9712, Latitude: 40.8010},
		},
		Description: "Wearing a grey hoodie and a red backpack.",
		Photos:      []string{},
		Videos:      []string{},
		Height:      "175cm",
		HairColor:   "Brown",
		EyeColor:    "Green",
		CreatedBy:   creator.ID,
		Status:      report.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Reports().Create(ctx, rep); err != nil {
			return err
		}
		return tx.Reports().CreateUpdate(ctx, &report.Update{
			ID:        uuid.New(),
			ReportID:  rep.ID,
			AuthorID:  creator.ID,
			Content:   "Flyers have been posted around the park.",
			CreatedAt: now,
		})
	})
	if err != nil {
		return report.Report{}, false, err
	}
	return *rep, true, nil
}

func seedConversation(ctx context.Context, store repository.Store, rep report.Report, creator, helper user.User) (conversation.Conversation, []message.Message, error) {
	conv := conversation.New(rep.ID, rep.ReportCode, rep.DisplayName(), helper.ID, creator.ID)
	if _, err := store.Conversations().GetOrCreate(ctx, &conv); err != nil {
		return conversation.Conversation{}, nil, err
	}

	lines := []struct {
		sender  uuid.UUID
		content string
	}{
		{helper.ID, "I think I saw him near the bus stop on 5th this morning."},
		{creator.ID, "Thank you! Do you remember what time?"},
		{helper.ID, "Around 8:15. He was heading south."},
	}

	base := time.Now().UTC().Add(-time.Hour)
	msgs := make([]message.Message, 0, len(lines))
	for i, line := range lines {
		m := message.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			ReportID:       rep.ID,
			ReportCode:     rep.ReportCode,
			SenderID:       line.sender,
			Content:        line.content,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Messages().Create(ctx, &m); err != nil {
			return conversation.Conversation{}, nil, err
		}
		msgs = append(msgs, m)
	}

	last := msgs[len(msgs)-1]
	if err := store.Conversations().SetLastMessage(ctx, conv.ID, conversation.LastMessage{
		Content:   last.Content,
		SenderID:  last.SenderID,
		CreatedAt: last.CreatedAt,
	}); err != nil {
		return conversation.Conversation{}, nil, err
	}
	return conv, msgs, nil
}
