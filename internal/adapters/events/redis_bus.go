package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"delivery-dispatch-service/internal/ports"
)

// RedisBus is the production EventBus: change notifications fan out over a
// redis pub/sub channel so every console instance sees every mutation,
// whichever service replica performed it. Delivery is at-least-once from the
// subscriber's point of view; handlers dedupe on Change.EventID.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	log     logrus.FieldLogger
}

func NewRedisBus(rdb *redis.Client, channel string, log logrus.FieldLogger) *RedisBus {
	if channel == "" {
		channel = "dispatch:changes"
	}
	return &RedisBus{rdb: rdb, channel: channel, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, ch ports.Change) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("publish change: marshal: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change %s/%d: %w", ch.Entity, ch.ID, err)
	}
	return nil
}

// Subscribe registers a handler for change notifications. The receive loop
// runs until the returned unsubscribe function is called or ctx is
// cancelled; subscriptions are long-lived for the life of a viewer session.
func (b *RedisBus) Subscribe(ctx context.Context, fn func(ports.Change)) (func(), error) {
	sub := b.rdb.Subscribe(ctx, b.channel)

	// Force the subscription handshake so a broken redis surfaces here
	// instead of as a silent dead receive loop.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %q: %w", b.channel, err)
	}

	go func() {
		for msg := range sub.Channel() {
			var ch ports.Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				b.log.WithError(err).Warn("dropping malformed change event")
				continue
			}
			fn(ch)
		}
	}()

	return func() {
		if err := sub.Close(); err != nil {
			b.log.WithError(err).Warn("closing change subscription")
		}
	}, nil
}
