package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/sirupsen/logrus"
)

type chatService struct {
	messages    MessageRepository
	groups      GroupRepository
	broadcaster Broadcaster
	logger      *logrus.Logger
	now         func() time.Time
}

func NewChatService(messages MessageRepository, groups GroupRepository, broadcaster Broadcaster, logger *logrus.Logger) ChatService {
	return &chatService{
		messages:    messages,
		groups:      groups,
		broadcaster: broadcaster,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListMessages возвращает историю чата в порядке отправки
func (s *chatService) ListMessages(ctx context.Context, groupID string) ([]*models.ChatMessage, error) {
	msgs, err := s.messages.ListByGroup(ctx, groupID)
	if err != nil {
		s.logger.WithField("group_id", groupID).WithError(err).Error("Failed to list messages from repository")
		return nil, fmt.Errorf("service: could not list messages: %w", err)
	}
	return msgs, nil
}

// SendMessage сохраняет сообщение и рассылает его подписчикам группы
func (s *chatService) SendMessage(ctx context.Context, msg *models.ChatMessage) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "chat",
		"method":    "SendMessage",
		"group_id":  msg.GroupID,
		"sender_id": msg.SenderID,
	})

	if _, err := s.groups.GetByID(ctx, msg.GroupID); err != nil {
		log.WithError(err).Warn("Attempted to send a message to a non-existent group")
		return fmt.Errorf("service: group with id %s not found for message: %w", msg.GroupID, err)
	}

	msg.ID = uuid.NewString()
	msg.Text = strings.TrimSpace(msg.Text)
	msg.CreatedAt = models.NewMillis(s.now())

	if err := s.messages.Create(ctx, msg); err != nil {
		log.WithError(err).Error("Failed to save message in repository")
		return fmt.Errorf("service: could not send message: %w", err)
	}

	// Сообщение уже сохранено, клиенты без потока получат его опросом
	if err := s.broadcaster.PublishMessage(ctx, msg); err != nil {
		log.WithError(err).Warn("Failed to broadcast message")
	}

	log.WithField("message_id", msg.ID).Debug("Message sent")
	return nil
}

// StreamMessages подписывает на новые сообщения группы
func (s *chatService) StreamMessages(ctx context.Context, groupID string) (<-chan *models.ChatMessage, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, fmt.Errorf("service: group with id %s not found for stream: %w", groupID, err)
	}

	ch, err := s.broadcaster.SubscribeMessages(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("service: could not subscribe to messages: %w", err)
	}
	return ch, nil
}
