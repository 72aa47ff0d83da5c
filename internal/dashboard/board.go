package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
	"github.com/odyssey-erp/odyssey-pulse/internal/widget"
)

var (
	// ErrWidgetNotFound is returned for unknown widget identifiers.
	ErrWidgetNotFound = errors.New("dashboard: widget not found")
	// ErrInvalidWidget is returned when a widget spec fails validation.
	ErrInvalidWidget = errors.New("dashboard: invalid widget")
	// ErrInvalidRange is returned for a range outside the offered options.
	ErrInvalidRange = errors.New("dashboard: invalid range")
)

// Options configures a Board.
type Options struct {
	Range       int
	Category    analytics.Category
	Logger      *slog.Logger
	Observer    widget.Observer
	Broadcaster *Broadcaster
	Clock       func() time.Time
}

type entry struct {
	spec WidgetSpec
	ctrl *widget.Controller
}

// Board is the dashboard container. It owns the selected range and the
// global refresh counter and feeds both into one controller per widget.
type Board struct {
	logger      *slog.Logger
	broadcaster *Broadcaster
	category    analytics.Category

	mu          sync.RWMutex
	global      int64
	rangeLength int
	widgets     []*entry
	index       map[string]*entry
}

// NewBoard validates specs and creates idle controllers for them.
func NewBoard(fetcher widget.Fetcher, specs []WidgetSpec, opts Options) (*Board, error) {
	if fetcher == nil {
		return nil, errors.New("dashboard: fetcher required")
	}
	if err := ValidateSpecs(specs); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rangeLength := opts.Range
	if rangeLength <= 0 {
		rangeLength = analytics.DefaultRange
	}
	category := opts.Category
	if category == "" {
		category = analytics.CategoryAll
	}
	broadcaster := opts.Broadcaster
	if broadcaster == nil {
		broadcaster = NewBroadcaster(nil, "")
	}

	b := &Board{
		logger:      logger.With(slog.String("component", "dashboard")),
		broadcaster: broadcaster,
		category:    category,
		rangeLength: rangeLength,
		index:       make(map[string]*entry, len(specs)),
	}
	ctrlOpts := []widget.Option{widget.WithLogger(logger), widget.WithObserver(opts.Observer), widget.WithClock(opts.Clock)}
	for _, spec := range specs {
		e := &entry{spec: spec}
		e.ctrl = widget.New(spec.ID, b.inputFor(spec), fetcher, ctrlOpts...)
		b.widgets = append(b.widgets, e)
		b.index[spec.ID] = e
	}
	return b, nil
}

// Start adopts the shared refresh counter, mounts every widget and follows
// refresh bumps published by other replicas until ctx is done.
func (b *Board) Start(ctx context.Context) error {
	current, err := b.broadcaster.Current(ctx)
	if err != nil {
		b.logger.Warn("read refresh counter", slog.Any("error", err))
	}

	b.mu.Lock()
	if current > b.global {
		b.global = current
	}
	for _, e := range b.widgets {
		e.ctrl.Update(b.inputFor(e.spec))
	}
	b.mu.Unlock()

	if err := b.broadcaster.Listen(ctx, func(n int64) { b.ApplyGlobal(n) }); err != nil {
		b.logger.Warn("subscribe refresh channel", slog.Any("error", err))
	}
	b.logger.Info("dashboard started", slog.Int("widgets", len(b.widgets)), slog.Int("range", b.Range()), slog.Int64("refresh", b.Global()))
	return nil
}

// RefreshAll bumps the global refresh counter, refreshing every widget.
func (b *Board) RefreshAll(ctx context.Context) error {
	n, err := b.bump(ctx)
	b.ApplyGlobal(n)
	return err
}

// SetRange changes the time range. Like a manual refresh it also bumps the
// global counter; every widget starts a single new cycle. Non-numeric and
// non-positive values select the default range.
func (b *Board) SetRange(ctx context.Context, raw string) error {
	days, err := ValidateRange(raw)
	if err != nil {
		return err
	}

	// The range is stored before the bump is published so that the local
	// listener and this call push the same trigger; the second push is a no-op.
	b.mu.Lock()
	b.rangeLength = days
	b.mu.Unlock()

	n, err := b.bump(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.global {
		b.global = n
	}
	b.pushLocked()
	return err
}

// ApplyGlobal adopts a newer global refresh counter. Older values are ignored.
func (b *Board) ApplyGlobal(n int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= b.global {
		return false
	}
	b.global = n
	b.pushLocked()
	return true
}

// RefreshWidget triggers a local refresh of a single widget.
func (b *Board) RefreshWidget(id string) error {
	b.mu.RLock()
	e, ok := b.index[id]
	b.mu.RUnlock()
	if !ok {
		return ErrWidgetNotFound
	}
	e.ctrl.Refresh()
	return nil
}

// View returns the view model of a single widget.
func (b *Board) View(id string) (widget.ViewModel, error) {
	b.mu.RLock()
	e, ok := b.index[id]
	b.mu.RUnlock()
	if !ok {
		return widget.ViewModel{}, ErrWidgetNotFound
	}
	return e.ctrl.View(), nil
}

// Views returns the view models of all widgets in board order.
func (b *Board) Views() []widget.ViewModel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]widget.ViewModel, 0, len(b.widgets))
	for _, e := range b.widgets {
		out = append(out, e.ctrl.View())
	}
	return out
}

// Spec returns the spec of a widget.
func (b *Board) Spec(id string) (WidgetSpec, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.index[id]
	if !ok {
		return WidgetSpec{}, false
	}
	return e.spec, true
}

// Range returns the selected range in days.
func (b *Board) Range() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rangeLength
}

// Global returns the applied global refresh counter.
func (b *Board) Global() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.global
}

// Loading reports whether any widget is still waiting for data.
func (b *Board) Loading() bool {
	for _, vm := range b.Views() {
		if vm.IsLoading {
			return true
		}
	}
	return false
}

// Wait blocks until every widget has settled its latest cycle.
func (b *Board) Wait(ctx context.Context) error {
	b.mu.RLock()
	ctrls := make([]*widget.Controller, 0, len(b.widgets))
	for _, e := range b.widgets {
		ctrls = append(ctrls, e.ctrl)
	}
	b.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, ctrl := range ctrls {
		g.Go(func() error {
			_, err := ctrl.Wait(ctx)
			return err
		})
	}
	return g.Wait()
}

// Close abandons all in-flight fetches.
func (b *Board) Close() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range b.widgets {
		e.ctrl.Close()
	}
}

func (b *Board) bump(ctx context.Context) (int64, error) {
	n, err := b.broadcaster.Bump(ctx)
	if err == nil {
		return n, nil
	}
	b.logger.Warn("broadcast refresh", slog.Any("error", err))
	if n > 0 {
		return n, err
	}
	return b.Global() + 1, err
}

func (b *Board) pushLocked() {
	for _, e := range b.widgets {
		e.ctrl.Update(b.inputFor(e.spec))
	}
}

func (b *Board) inputFor(spec WidgetSpec) widget.Input {
	category := spec.Category
	if category == "" {
		category = b.category
	}
	return widget.Input{
		DisplayName:   spec.Title,
		Chart:         spec.Chart,
		RangeLength:   b.rangeLength,
		Category:      category,
		GlobalRefresh: b.global,
	}
}
