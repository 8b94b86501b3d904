package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/domain/message"
	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/metrics"
	"lost-persons/internal/proxy"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sendAttempts bounds retries when a concurrent sender changed the conversation first.
const sendAttempts = 3

type MessageService struct {
	store         repository.Store
	conversations *ConversationService
	directory     *Directory
	notifications *NotificationService
	log           *logger.Logger
}

func NewMessageService(store repository.Store, conversations *ConversationService, directory *Directory, notifications *NotificationService, log *logger.Logger) *MessageService {
	return &MessageService{
		store:         store,
		conversations: conversations,
		directory:     directory,
		notifications: notifications,
		log:           log,
	}
}

// Send appends a message to the conversation of reportCode the sender belongs to or joins.
// The message and the conversation summary are written in one transaction with the same
// timestamp; the creator is notified after commit unless they are the sender.
func (s *MessageService) Send(ctx context.Context, actor proxy.Actor, reportCode, content string) (MessageView, error) {
	reportCode = strings.TrimSpace(reportCode)
	if reportCode == "" || strings.TrimSpace(content) == "" {
		return MessageView{}, fmt.Errorf("report id and content are required: %w", lperrors.ErrInvalidInput)
	}

	rep, err := s.store.Reports().GetByCode(ctx, reportCode)
	if err != nil {
		return MessageView{}, err
	}
	if rep.CreatedBy == uuid.Nil {
		return MessageView{}, fmt.Errorf("report %s has no creator: %w", rep.ReportCode, lperrors.ErrNotFound)
	}

	var msg message.Message
	for attempt := 1; ; attempt++ {
		msg, err = s.appendMessage(ctx, rep, actor.ID, content)
		if err == nil {
			break
		}
		if !errors.Is(err, lperrors.ErrConflict) || attempt == sendAttempts {
			return MessageView{}, err
		}
		s.log.Ctx(ctx).Debug("conversation changed concurrently, retrying send", zap.Int("attempt", attempt))
	}
	metrics.MessagesSentTotal.Inc()

	if actor.ID == rep.CreatedBy {
		creatorName := s.directory.Name(ctx, rep.CreatedBy, unknownName)
		return toMessageView(msg, ParticipantView{ID: actor.ID.String(), Name: creatorName}), nil
	}

	// The send result only names the report creator; other senders are labelled Unknown
	// and resolved by listMessages. The notification still carries the sender's name.
	senderName := s.directory.Name(ctx, actor.ID, unknownName)
	s.notifications.NotifyQuietly(ctx, rep.CreatedBy, notification.KindMessage, messageText(senderName, rep.ReportCode), notification.Refs{
		ReportID:       uuid.NullUUID{UUID: rep.ID, Valid: true},
		ConversationID: uuid.NullUUID{UUID: msg.ConversationID, Valid: true},
		ActorName:      senderName,
	})
	return toMessageView(msg, ParticipantView{ID: actor.ID.String(), Name: unknownName}), nil
}

func (s *MessageService) appendMessage(ctx context.Context, rep report.Report, senderID uuid.UUID, content string) (message.Message, error) {
	var msg message.Message
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		conv, err := conversationForSender(ctx, tx, rep, senderID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		msg = message.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			ReportID:       rep.ID,
			ReportCode:     rep.ReportCode,
			SenderID:       senderID,
			Content:        content,
			CreatedAt:      now,
		}
		if err := tx.Messages().Create(ctx, &msg); err != nil {
			return err
		}
		return tx.Conversations().SetLastMessage(ctx, conv.ID, conversation.LastMessage{
			Content:   content,
			SenderID:  senderID,
			CreatedAt: now,
		})
	})
	return msg, err
}

// conversationForSender picks the report conversation the sender already belongs to, else
// joins the oldest one, else creates {sender, creator}. Unlike Resolve this does not require
// an exact participant match.
func conversationForSender(ctx context.Context, tx repository.Store, rep report.Report, senderID uuid.UUID) (conversation.Conversation, error) {
	convs, err := tx.Conversations().GetReportConversations(ctx, rep.ID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	for _, c := range convs {
		if c.HasParticipant(senderID) {
			return c, nil
		}
	}

	if len(convs) > 0 {
		oldest := convs[0]
		joined := oldest.WithParticipant(senderID)
		if err := tx.Conversations().UpdateParticipants(ctx, joined, oldest.ParticipantKey); err != nil {
			return conversation.Conversation{}, err
		}
		return joined, nil
	}

	conv := conversation.New(rep.ID, rep.ReportCode, rep.DisplayName(), senderID, rep.CreatedBy)
	created, err := tx.Conversations().GetOrCreate(ctx, &conv)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if created {
		metrics.ConversationsCreatedTotal.Inc()
	}
	return conv, nil
}

// List returns the conversation log oldest first, labelled with sender names.
func (s *MessageService) List(ctx context.Context, actor proxy.Actor, rawConversationID string) ([]MessageView, error) {
	conv, err := s.conversations.loadForParticipant(ctx, actor, rawConversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.Messages().GetConversationMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	senders := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		senders = append(senders, m.SenderID)
	}
	names, err := s.directory.LookupMany(ctx, senders)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, toMessageView(m, participantView(m.SenderID, names)))
	}
	return views, nil
}
