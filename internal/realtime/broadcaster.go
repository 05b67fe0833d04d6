package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	issuesChannel     = "issues:snapshot"
	groupChannelFmt   = "chat:group:%s"
	subscriberBufSize = 16
)

// RedisBroadcaster рассылает изменения через Redis Pub/Sub, так что все инстансы сервера
// получают одни и те же снимки и сообщения
type RedisBroadcaster struct {
	redisClient *redis.Client
	logger      *logrus.Logger
}

func NewRedisBroadcaster(redisClient *redis.Client, logger *logrus.Logger) service.Broadcaster {
	return &RedisBroadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

func GroupChannel(groupID string) string {
	return fmt.Sprintf(groupChannelFmt, groupID)
}

// PublishIssues публикует полный снимок коллекции
func (b *RedisBroadcaster) PublishIssues(ctx context.Context, issues []*models.Issue) error {
	if issues == nil {
		issues = []*models.Issue{}
	}
	return b.publish(ctx, issuesChannel, issues)
}

// PublishMessage публикует сообщение в канал группы
func (b *RedisBroadcaster) PublishMessage(ctx context.Context, msg *models.ChatMessage) error {
	return b.publish(ctx, GroupChannel(msg.GroupID), msg)
}

// SubscribeIssues возвращает канал снимков; закрывается при отмене ctx
func (b *RedisBroadcaster) SubscribeIssues(ctx context.Context) (<-chan []*models.Issue, error) {
	pubsub, err := b.subscribe(ctx, issuesChannel)
	if err != nil {
		return nil, err
	}

	out := make(chan []*models.Issue, subscriberBufSize)
	go relay(ctx, pubsub, out, b.logger.WithField("channel", issuesChannel))
	return out, nil
}

// SubscribeMessages возвращает канал новых сообщений группы
func (b *RedisBroadcaster) SubscribeMessages(ctx context.Context, groupID string) (<-chan *models.ChatMessage, error) {
	channel := GroupChannel(groupID)
	pubsub, err := b.subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}

	out := make(chan *models.ChatMessage, subscriberBufSize)
	go relay(ctx, pubsub, out, b.logger.WithField("channel", channel))
	return out, nil
}

func (b *RedisBroadcaster) publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", channel, err)
	}
	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

func (b *RedisBroadcaster) subscribe(ctx context.Context, channel string) (*redis.PubSub, error) {
	pubsub := b.redisClient.Subscribe(ctx, channel)
	// Receive дожидается подтверждения подписки, иначе ранние публикации теряются
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return pubsub, nil
}

// relay декодирует сообщения Pub/Sub в out до отмены ctx или закрытия подписки
func relay[T any](ctx context.Context, pubsub *redis.PubSub, out chan<- T, log *logrus.Entry) {
	defer close(out)
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-messages:
			if !ok {
				return
			}
			var value T
			if err := json.Unmarshal([]byte(raw.Payload), &value); err != nil {
				log.WithError(err).Warn("Failed to decode broadcast payload, skipping")
				continue
			}
			select {
			case out <- value:
			case <-ctx.Done():
				return
			}
		}
	}
}
