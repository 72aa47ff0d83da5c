package widget

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
)

// Fetcher resolves widget data requests.
type Fetcher interface {
	Fetch(ctx context.Context, req analytics.FetchRequest) (analytics.RawSample, error)
}

// Option customises a Controller.
type Option func(*Controller)

// WithObserver registers an Observer for fetch lifecycle events.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the clock used for axis labels and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithContext bounds every fetch of the controller by parent.
func WithContext(parent context.Context) Option {
	return func(c *Controller) {
		if parent != nil {
			c.parent = parent
		}
	}
}

// Controller owns the refresh lifecycle of one widget. Every fetch cycle is
// tagged with a version; only the result of the latest version may change
// the visible state, results of superseded cycles are dropped.
type Controller struct {
	id       string
	fetcher  Fetcher
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	parent   context.Context

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	input     Input
	desc      analytics.Descriptor
	signal    RefreshSignal
	issued    trigger
	mounted   bool
	closed    bool
	version   uint64
	requestID string
	updatedAt time.Time
	state     FetchState
	done      chan struct{}
	settled   bool
}

// New creates an idle controller. No fetch runs until Mount, Update or Refresh.
func New(id string, in Input, fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		id:       id,
		fetcher:  fetcher,
		observer: nopObserver{},
		logger:   slog.Default(),
		now:      time.Now,
		parent:   context.Background(),
		state:    FetchState{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(c.parent)
	c.logger = c.logger.With(slog.String("widget", id))
	c.input = in.normalize()
	c.desc = analytics.Describe(c.input.DisplayName, c.input.Chart)
	c.signal.Global = c.input.GlobalRefresh
	return c
}

// ID returns the widget identifier.
func (c *Controller) ID() string {
	return c.id
}

// Descriptor returns the resolved metric descriptor.
func (c *Controller) Descriptor() analytics.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desc
}

// Mount starts the first fetch cycle. It reports false when the widget is
// already mounted.
func (c *Controller) Mount() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted || c.closed {
		return false
	}
	c.startLocked()
	return true
}

// Update applies new container inputs and starts a fetch cycle when any
// dependency changed since the last issued cycle. A GlobalRefresh lower than
// the one already applied is ignored.
func (c *Controller) Update(in Input) bool {
	in = in.normalize()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if in.GlobalRefresh < c.signal.Global {
		in.GlobalRefresh = c.signal.Global
	}
	if in.DisplayName != c.input.DisplayName || in.Chart != c.input.Chart {
		c.desc = analytics.Describe(in.DisplayName, in.Chart)
	}
	c.input = in
	c.signal.Global = in.GlobalRefresh
	if c.mounted && c.triggerLocked() == c.issued {
		return false
	}
	c.startLocked()
	return true
}

// Refresh bumps the local refresh signal, starting a new cycle from any state.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.signal.Local++
	c.startLocked()
}

// Retry is a manual refresh issued from the failed state.
func (c *Controller) Retry() {
	c.Refresh()
}

// State returns the current fetch state.
func (c *Controller) State() FetchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View derives the render-ready view model from the current state.
func (c *Controller) View() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Wait blocks until the most recently issued cycle settles and returns the
// resulting view. Cycles superseded while waiting are skipped.
func (c *Controller) Wait(ctx context.Context) (ViewModel, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ViewModel{}, ErrClosed
		}
		if !c.mounted {
			c.mu.Unlock()
			return ViewModel{}, ErrNotMounted
		}
		if c.settled {
			vm := c.viewLocked()
			c.mu.Unlock()
			return vm, nil
		}
		done := c.done
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ViewModel{}, ctx.Err()
		case <-done:
		}
	}
}

// Close abandons in-flight fetches and waits for their goroutines to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.done != nil && !c.settled {
		close(c.done)
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) triggerLocked() trigger {
	return trigger{
		name:        c.input.DisplayName,
		chart:       c.input.Chart,
		rangeLength: c.input.RangeLength,
		category:    c.input.Category,
		seed:        c.signal.Seed(),
	}
}

// startLocked issues a new cycle. Waiters of a superseded, unsettled cycle
// are woken so they can follow the new one.
func (c *Controller) startLocked() {
	if c.done != nil && !c.settled {
		close(c.done)
	}
	c.version++
	c.mounted = true
	c.settled = false
	c.done = make(chan struct{})
	c.issued = c.triggerLocked()
	c.requestID = uuid.NewString()
	c.state = FetchState{Status: StatusLoading}

	req := analytics.FetchRequest{
		Descriptor:     c.desc,
		RangeLength:    c.input.RangeLength,
		RefreshSeed:    c.signal.Seed(),
		CategoryWeight: c.input.Category.Weight(),
	}
	c.logger.Debug("fetch issued",
		slog.Uint64("version", c.version),
		slog.String("request_id", c.requestID),
		slog.Int("range", req.RangeLength),
		slog.Int64("seed", req.RefreshSeed),
	)
	c.observer.FetchStarted(c.id)

	c.wg.Add(1)
	go c.run(c.version, c.requestID, req)
}

func (c *Controller) run(version uint64, requestID string, req analytics.FetchRequest) {
	defer c.wg.Done()
	start := time.Now()
	sample, err := c.fetcher.Fetch(c.ctx, req)
	elapsed := time.Since(start)

	c.mu.Lock()
	if c.closed || version != c.version {
		c.mu.Unlock()
		c.logger.Debug("stale result discarded", slog.Uint64("version", version), slog.String("request_id", requestID))
		c.observer.FetchResolved(c.id, OutcomeDiscarded, elapsed)
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailed
		c.state = FetchState{Status: StatusFailed, Reason: messageFor(err)}
	} else {
		c.state = FetchState{Status: StatusSuccess, Sample: &sample}
	}
	c.updatedAt = c.now()
	c.settled = true
	close(c.done)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("fetch failed", slog.String("request_id", requestID), slog.Any("error", err))
	}
	c.observer.FetchResolved(c.id, outcome, elapsed)
}

func (c *Controller) viewLocked() ViewModel {
	vm := ViewModel{
		WidgetID:  c.id,
		Title:     c.desc.Title,
		Chart:     c.desc.Chart,
		Status:    c.state.Status,
		Seconds:   c.desc.Seconds(),
		RequestID: c.requestID,
		Refresh:   c.signal,
		UpdatedAt: c.updatedAt,
	}
	switch c.state.Status {
	case StatusIdle, StatusLoading:
		vm.IsLoading = true
	case StatusSuccess:
		sample := *c.state.Sample
		summary := analytics.Summarize(c.desc, sample)
		vm.Summary = &summary
		vm.Series = &Series{Labels: sample.Labels(c.now()), Values: sample.Values()}
	case StatusFailed:
		vm.ErrorMessage = c.state.Reason
	}
	return vm
}
