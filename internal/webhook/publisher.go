package webhook

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_dashboard/internal/models"
)

const (
	webhookQueueKey = "webhook_events"
)

// EventKind - тип изменения инцидента
type EventKind string

const (
	EventIncidentCreated EventKind = "incident.created"
	EventStatusChanged   EventKind = "incident.status_changed"
)

// WebhookEvent - структура для данных вебхука
type WebhookEvent struct {
	EventID   string           `json:"event_id"`
	Kind      EventKind        `json:"kind"`
	Incident  *models.Incident `json:"incident"`
	Fallback  bool             `json:"fallback"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewEvent создает событие с новым идентификатором
func NewEvent(kind EventKind, incident *models.Incident, fallback bool) WebhookEvent {
	return WebhookEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Incident:  incident,
		Fallback:  fallback,
		Timestamp: time.Now().UTC(),
	}
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

// Publish кладет событие в левую часть очереди, воркер забирает справа
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
