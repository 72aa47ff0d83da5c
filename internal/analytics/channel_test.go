package analytics

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordedSleep struct {
	delays []time.Duration
}

func (r *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestSimulatedChannelDelayWithinBounds(t *testing.T) {
	rec := &recordedSleep{}
	opts := DefaultChannelOptions()
	opts.FailureRate = 0
	opts.Sleep = rec.sleep
	channel := NewSimulatedChannel(newTestGenerator(10), opts)

	req := FetchRequest{Descriptor: Describe("Queries Executed", ChartArea), RangeLength: 7, CategoryWeight: 1}
	for i := 0; i < 200; i++ {
		sample, err := channel.Fetch(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sample.Series) != 7 {
			t.Fatalf("expected 7 points, got %d", len(sample.Series))
		}
	}
	for _, d := range rec.delays {
		if d < DefaultMinDelay || d >= DefaultMaxDelay {
			t.Fatalf("delay %s outside [%s,%s)", d, DefaultMinDelay, DefaultMaxDelay)
		}
	}
}

func TestSimulatedChannelFailureRate(t *testing.T) {
	noWait := func(ctx context.Context, d time.Duration) error { return nil }
	req := FetchRequest{Descriptor: Describe("Users", ChartPie), RangeLength: 30}

	always := NewSimulatedChannel(newTestGenerator(11), ChannelOptions{FailureRate: 1, Sleep: noWait})
	if _, err := always.Fetch(context.Background(), req); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}

	never := NewSimulatedChannel(newTestGenerator(12), ChannelOptions{FailureRate: 0, Sleep: noWait})
	sample, err := never.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sample.Split == nil {
		t.Fatalf("expected proportion sample")
	}

	sampled := NewSimulatedChannel(newTestGenerator(13), ChannelOptions{FailureRate: DefaultFailureRate, Sleep: noWait})
	failures := 0
	const runs = 5000
	for i := 0; i < runs; i++ {
		if _, err := sampled.Fetch(context.Background(), req); err != nil {
			failures++
		}
	}
	rate := float64(failures) / runs
	if rate < 0.05 || rate > 0.11 {
		t.Fatalf("failure rate %.3f far from %.2f", rate, DefaultFailureRate)
	}
}

func TestSimulatedChannelHonoursContext(t *testing.T) {
	channel := NewSimulatedChannel(newTestGenerator(14), ChannelOptions{MinDelay: time.Hour, MaxDelay: 2 * time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := channel.Fetch(ctx, FetchRequest{Descriptor: Describe("Users", ChartPie)}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestSimulatedChannelRealDelay(t *testing.T) {
	channel := NewSimulatedChannel(newTestGenerator(15), ChannelOptions{MinDelay: 5 * time.Millisecond, MaxDelay: 10 * time.Millisecond})
	start := time.Now()
	if _, err := channel.Fetch(context.Background(), FetchRequest{Descriptor: Describe("Users", ChartPie)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Fatalf("expected artificial latency, took %s", elapsed)
	}
}
