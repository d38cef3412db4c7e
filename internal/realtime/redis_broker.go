package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisBroker fans events out over Redis pub/sub so subscribers on any
// instance see them. Channel name is prefix + ":" + ticket id.
type redisBroker struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisBroker creates a Redis-backed broker.
func NewRedisBroker(client *redis.Client, prefix string, logger *zap.Logger) Broker {
	return &redisBroker{client: client, prefix: prefix, logger: logger}
}

func (b *redisBroker) channel(ticketID string) string {
	return b.prefix + ":" + ticketID
}

func (b *redisBroker) Publish(ctx context.Context, ticketID string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel(ticketID), payload).Err()
}

func (b *redisBroker) Subscribe(ctx context.Context, ticketID string, deliver func(Event)) (func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channel(ticketID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	go func() {
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("dropping malformed realtime event", zap.Error(err))
				continue
			}
			deliver(event)
		}
	}()

	return func() { _ = pubsub.Close() }, nil
}
