package dashboard

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	refreshCounterKey = "dashboard:refresh"
	// DefaultRefreshChannel carries global refresh bumps between replicas.
	DefaultRefreshChannel = "dashboard.refresh"
)

// Broadcaster keeps the dashboard-wide refresh counter. With Redis the
// counter is shared by every replica and bumps are published; without it the
// counter lives in memory.
type Broadcaster struct {
	client  *redis.Client
	channel string

	mu    sync.Mutex
	local int64
}

// NewBroadcaster instantiates the broadcaster. client may be nil.
func NewBroadcaster(client *redis.Client, channel string) *Broadcaster {
	if channel == "" {
		channel = DefaultRefreshChannel
	}
	return &Broadcaster{client: client, channel: channel}
}

// Current returns the current refresh counter, zero when never bumped.
func (b *Broadcaster) Current(ctx context.Context) (int64, error) {
	if b == nil {
		return 0, nil
	}
	if b.client == nil {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.local, nil
	}
	n, err := b.client.Get(ctx, refreshCounterKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// Bump increments the counter and publishes the new value.
func (b *Broadcaster) Bump(ctx context.Context) (int64, error) {
	if b == nil {
		return 0, errors.New("dashboard: broadcaster not configured")
	}
	if b.client == nil {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.local++
		return b.local, nil
	}
	n, err := b.client.Incr(ctx, refreshCounterKey).Result()
	if err != nil {
		return 0, err
	}
	if err := b.client.Publish(ctx, b.channel, strconv.FormatInt(n, 10)).Err(); err != nil {
		return n, err
	}
	return n, nil
}

// Listen subscribes to bump notifications and calls apply with every
// published counter value until ctx is done. It returns once the
// subscription is confirmed.
func (b *Broadcaster) Listen(ctx context.Context, apply func(int64)) error {
	if b == nil || b.client == nil || apply == nil {
		return nil
	}
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if n, err := strconv.ParseInt(msg.Payload, 10, 64); err == nil {
					apply(n)
					continue
				}
				// Unparseable payloads fall back to the stored counter.
				if n, err := b.Current(ctx); err == nil {
					apply(n)
				}
			}
		}
	}()
	return nil
}
