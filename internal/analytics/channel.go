package analytics

import (
	"context"
	"errors"
	"time"
)

// ErrDataUnavailable is returned when the simulated backend drops a request.
var ErrDataUnavailable = errors.New("analytics: data unavailable")

// Defaults for the simulated backend.
const (
	DefaultMinDelay    = 350 * time.Millisecond
	DefaultMaxDelay    = 800 * time.Millisecond
	DefaultFailureRate = 0.08
)

// FetchRequest describes one widget data request.
type FetchRequest struct {
	Descriptor     Descriptor
	RangeLength    int
	RefreshSeed    int64
	CategoryWeight float64
}

// ChannelOptions tunes latency and failure of a SimulatedChannel.
type ChannelOptions struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	FailureRate float64
	// Sleep overrides the latency wait, mainly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// SimulatedChannel stands in for a remote metrics backend: it waits for an
// artificial latency and then either fails or returns generated data.
type SimulatedChannel struct {
	gen  *Generator
	opts ChannelOptions
}

// NewSimulatedChannel constructs a channel backed by gen.
func NewSimulatedChannel(gen *Generator, opts ChannelOptions) *SimulatedChannel {
	if gen == nil {
		gen = NewGenerator(nil)
	}
	if opts.MinDelay < 0 {
		opts.MinDelay = 0
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	if opts.FailureRate < 0 {
		opts.FailureRate = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &SimulatedChannel{gen: gen, opts: opts}
}

// DefaultChannelOptions returns the production latency and failure model.
func DefaultChannelOptions() ChannelOptions {
	return ChannelOptions{
		MinDelay:    DefaultMinDelay,
		MaxDelay:    DefaultMaxDelay,
		FailureRate: DefaultFailureRate,
	}
}

// Fetch waits a random delay in [MinDelay, MaxDelay) and resolves with a
// generated sample, or with ErrDataUnavailable at FailureRate. The wait is
// the only blocking point; a cancelled ctx ends it with ctx.Err().
func (c *SimulatedChannel) Fetch(ctx context.Context, req FetchRequest) (RawSample, error) {
	if err := c.opts.Sleep(ctx, c.delay()); err != nil {
		return RawSample{}, err
	}
	if c.gen.float64() < c.opts.FailureRate {
		return RawSample{}, ErrDataUnavailable
	}
	return c.gen.Generate(req.Descriptor, req.RangeLength, req.RefreshSeed, req.CategoryWeight), nil
}

func (c *SimulatedChannel) delay() time.Duration {
	span := c.opts.MaxDelay - c.opts.MinDelay
	if span <= 0 {
		return c.opts.MinDelay
	}
	return c.opts.MinDelay + time.Duration(c.gen.float64()*float64(span))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
