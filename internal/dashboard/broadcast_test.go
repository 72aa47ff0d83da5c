package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBroadcasterInMemory(t *testing.T) {
	b := NewBroadcaster(nil, "")
	ctx := context.Background()
	if n, err := b.Current(ctx); err != nil || n != 0 {
		t.Fatalf("expected zero counter, got %d (%v)", n, err)
	}
	for want := int64(1); want <= 3; want++ {
		n, err := b.Bump(ctx)
		if err != nil {
			t.Fatalf("bump failed: %v", err)
		}
		if n != want {
			t.Fatalf("expected %d got %d", want, n)
		}
	}
	if err := b.Listen(ctx, func(int64) {}); err != nil {
		t.Fatalf("in-memory listen should be a no-op: %v", err)
	}
}

func TestBroadcasterPublishesBumps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroadcaster(client, "test.refresh")
	received := make(chan int64, 4)
	if err := b.Listen(ctx, func(n int64) { received <- n }); err != nil {
		t.Fatalf("listen failed: %v", err)
	}

	n, err := b.Bump(ctx)
	if err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected counter 1 got %d", n)
	}

	select {
	case got := <-received:
		if got != 1 {
			t.Fatalf("expected published 1 got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected bump notification")
	}

	// Garbage payloads fall back to the stored counter.
	if err := client.Publish(ctx, "test.refresh", "garbage").Err(); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	select {
	case got := <-received:
		if got != 1 {
			t.Fatalf("expected stored counter 1 got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected fallback notification")
	}

	current, err := b.Current(ctx)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if current != 1 {
		t.Fatalf("expected stored counter 1 got %d", current)
	}
}
