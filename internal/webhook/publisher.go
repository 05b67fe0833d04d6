package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/civic_issue_map/internal/models"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

const (
	webhookQueueKey = "webhook_events"
)

// Типы событий
const (
	EventIssueCreated = "issue.created"
	EventIssueDeleted = "issue.deleted"
)

// WebhookEvent - структура для данных вебхука
type WebhookEvent struct {
	Type      string          `json:"type"`
	IssueID   string          `json:"issue_id"`
	Category  models.Category `json:"category,omitempty"`
	Latitude  *float64        `json:"latitude,omitempty"`
	Longitude *float64        `json:"longitude,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Issue     *models.Issue   `json:"issue,omitempty"` // Полная запись, только для issue.created
}

// NewIssueEvent собирает событие по проблеме
func NewIssueEvent(eventType string, issue *models.Issue, at time.Time) WebhookEvent {
	event := WebhookEvent{
		Type:      eventType,
		IssueID:   issue.ID,
		Category:  issue.Category,
		Timestamp: at,
	}
	if issue.HasValidCoords() {
		lon, lat := issue.Lon(), issue.Lat()
		event.Longitude = &lon
		event.Latitude = &lat
	}
	if eventType == EventIssueCreated {
		event.Issue = issue
	}
	return event
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH + BRPOP в воркере дают FIFO
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
