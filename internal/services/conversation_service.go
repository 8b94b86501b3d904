package services

import (
	"context"
	"fmt"
	"strings"

	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/metrics"
	"lost-persons/internal/proxy"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ConversationService struct {
	store     repository.Store
	directory *Directory
	access    *proxy.AccessControl
	log       *logger.Logger
}

func NewConversationService(store repository.Store, directory *Directory, access *proxy.AccessControl, log *logger.Logger) *ConversationService {
	return &ConversationService{store: store, directory: directory, access: access, log: log}
}

// Resolve returns the conversation of reportCode whose participant set is exactly
// {requester} ∪ participantIDs, creating it when absent. created reports which case applied.
func (s *ConversationService) Resolve(ctx context.Context, actor proxy.Actor, reportCode string, participantIDs []uuid.UUID) (ConversationView, bool, error) {
	reportCode = strings.TrimSpace(reportCode)
	others := conversation.NormalizeParticipants(participantIDs...)
	if reportCode == "" || len(others) == 0 {
		return ConversationView{}, false, fmt.Errorf("report id and at least one participant are required: %w", lperrors.ErrInvalidInput)
	}

	rep, err := s.store.Reports().GetByCode(ctx, reportCode)
	if err != nil {
		return ConversationView{}, false, err
	}
	if rep.CreatedBy == uuid.Nil {
		return ConversationView{}, false, fmt.Errorf("report %s has no creator: %w", rep.ReportCode, lperrors.ErrInvalidState)
	}

	members := append([]uuid.UUID{actor.ID}, others...)
	conv := conversation.New(rep.ID, rep.ReportCode, rep.DisplayName(), members...)
	created, err := s.store.Conversations().GetOrCreate(ctx, &conv)
	if err != nil {
		return ConversationView{}, false, err
	}
	if created {
		metrics.ConversationsCreatedTotal.Inc()
		s.log.Ctx(ctx).Info("conversation created",
			zap.String("conversation_id", conv.ID.String()),
			zap.String("report_code", rep.ReportCode),
			zap.Int("participants", len(conv.Participants)),
		)
	}

	names, err := s.directory.LookupMany(ctx, conv.Participants)
	if err != nil {
		return ConversationView{}, false, err
	}
	return toConversationView(conv, names, uuid.Nil), created, nil
}

// Get returns one conversation to a participant.
func (s *ConversationService) Get(ctx context.Context, actor proxy.Actor, rawID string) (ConversationView, error) {
	conv, err := s.loadForParticipant(ctx, actor, rawID)
	if err != nil {
		return ConversationView{}, err
	}
	names, err := s.directory.LookupMany(ctx, conv.Participants)
	if err != nil {
		return ConversationView{}, err
	}
	return toConversationView(conv, names, uuid.Nil), nil
}

// ListMine returns the actor's conversations, optionally for one report code.
func (s *ConversationService) ListMine(ctx context.Context, actor proxy.Actor, reportCode string) ([]ConversationView, error) {
	convs, err := s.store.Conversations().GetUserConversations(ctx, actor.ID, strings.TrimSpace(reportCode))
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for _, c := range convs {
		ids = append(ids, c.Participants...)
	}
	names, err := s.directory.LookupMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		views = append(views, toConversationView(c, names, actor.ID))
	}
	return views, nil
}

func (s *ConversationService) loadForParticipant(ctx context.Context, actor proxy.Actor, rawID string) (conversation.Conversation, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("conversation id: %w", lperrors.ErrInvalidInput)
	}
	conv, err := s.store.Conversations().GetByID(ctx, id)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if err := s.access.CanViewConversation(actor, conv); err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}
