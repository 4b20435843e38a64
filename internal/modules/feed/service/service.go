package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sharebite/sharebite/internal/entity"
	"github.com/sharebite/sharebite/internal/modules/feed/dto"
)

// Publisher pushes donation row events to every subscribed dashboard.
type Publisher interface {
	PublishInsert(ctx context.Context, donation *entity.Donation)
	PublishUpdate(ctx context.Context, donation *entity.Donation)
	PublishDelete(ctx context.Context, id uuid.UUID)
}

type feedService struct {
	redisClient *redis.Client
}

// NewPublisher returns a redis-backed publisher. A nil client disables the
// feed; mutations still succeed and clients fall back to refetching.
func NewPublisher(redisClient *redis.Client) Publisher {
	return &feedService{redisClient: redisClient}
}

func (s *feedService) PublishInsert(ctx context.Context, donation *entity.Donation) {
	s.publish(ctx, dto.Event{Type: dto.EventInsert, New: donation})
}

func (s *feedService) PublishUpdate(ctx context.Context, donation *entity.Donation) {
	s.publish(ctx, dto.Event{Type: dto.EventUpdate, New: donation})
}

func (s *feedService) PublishDelete(ctx context.Context, id uuid.UUID) {
	s.publish(ctx, dto.Event{Type: dto.EventDelete, Old: &dto.EventRef{ID: id}})
}

func (s *feedService) publish(ctx context.Context, event dto.Event) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal feed event: %v", err)
		return
	}

	// Feed delivery is best-effort; the store remains the source of truth.
	if err := s.redisClient.Publish(ctx, dto.Channel, payload).Err(); err != nil {
		log.Printf("failed to publish feed event: %v", err)
	}
}
