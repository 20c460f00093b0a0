package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"revenue_automation_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "revenue:events"

// NewClient opens the Redis connection used for event fan-out.
func NewClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("redis url not configured")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// RedisPublisher publishes events with Redis PUBLISH.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	log     *logger.Logger
}

// NewRedisPublisher creates a publisher on channel using client.
func NewRedisPublisher(client redis.UniversalClient, channel string, log *logger.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel, log: log}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("event marshal failed", "type", event.Type, "error", err)
		return
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.log.Warn("event publish failed", "type", event.Type, "channel", p.channel, "error", err)
	}
}

// Subscriber reads events from the channel and hands them to a handler.
type Subscriber struct {
	client  redis.UniversalClient
	channel string
	log     *logger.Logger
}

// NewSubscriber creates a subscriber on channel.
func NewSubscriber(client redis.UniversalClient, channel string, log *logger.Logger) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Subscriber{client: client, channel: channel, log: log}
}

// Run blocks until ctx is cancelled, dispatching each decoded event to h.
// Undecodable messages are logged and skipped.
func (s *Subscriber) Run(ctx context.Context, h Handler) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.log.Warn("event decode failed", "channel", s.channel, "error", err)
				continue
			}
			h.Handle(ctx, event)
		}
	}
}
