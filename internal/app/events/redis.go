package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/wisp-cms/wisp/pkg/logger"
)

// RedisBus is a Bus backed by redis pub/sub, for deployments where more
// than one node must observe settings writes.
type RedisBus struct {
	client *redis.Client
	log    *logger.Logger

	mu   sync.Mutex
	subs []*redis.PubSub
}

var _ Bus = (*RedisBus)(nil)

// NewRedisBus connects to redis and verifies the connection.
func NewRedisBus(addr, password string, db int, log *logger.Logger) (*RedisBus, error) {
	if log == nil {
		log = logger.NewDefault("events")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBus{client: client, log: log}, nil
}

// Publish delivers payload to every node subscribed to topic.
func (b *RedisBus) Publish(ctx context.Context, topic, payload string) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers h for topic. Delivery runs on a goroutine owned by
// the subscription; the returned function stops it.
func (b *RedisBus) Subscribe(topic string, h Handler) func() {
	pubsub := b.client.Subscribe(context.Background(), topic)

	b.mu.Lock()
	b.subs = append(b.subs, pubsub)
	b.mu.Unlock()

	go func() {
		for msg := range pubsub.Channel() {
			h(msg.Payload)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			b.log.WithError(err).Warn("error closing redis subscription")
		}
	}
}

// Close stops every subscription and releases the client.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	return b.client.Close()
}
