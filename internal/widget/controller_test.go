package widget

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
)

type fetchResult struct {
	sample analytics.RawSample
	err    error
}

type pendingFetch struct {
	req   analytics.FetchRequest
	reply chan fetchResult
}

func (p *pendingFetch) succeed(sample analytics.RawSample) {
	p.reply <- fetchResult{sample: sample}
}

func (p *pendingFetch) fail(err error) {
	p.reply <- fetchResult{err: err}
}

// gatedFetcher holds every request until the test resolves it.
type gatedFetcher struct {
	calls chan *pendingFetch
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{calls: make(chan *pendingFetch, 16)}
}

func (f *gatedFetcher) Fetch(ctx context.Context, req analytics.FetchRequest) (analytics.RawSample, error) {
	call := &pendingFetch{req: req, reply: make(chan fetchResult, 1)}
	f.calls <- call
	select {
	case res := <-call.reply:
		return res.sample, res.err
	case <-ctx.Done():
		return analytics.RawSample{}, ctx.Err()
	}
}

func (f *gatedFetcher) next(t *testing.T) *pendingFetch {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a fetch to be issued")
		return nil
	}
}

func (f *gatedFetcher) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected fetch issued with seed %d", call.req.RefreshSeed)
	default:
	}
}

type resolvedEvent struct {
	widgetID string
	outcome  Outcome
}

type recordingObserver struct {
	started  chan string
	resolved chan resolvedEvent
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{started: make(chan string, 16), resolved: make(chan resolvedEvent, 16)}
}

func (o *recordingObserver) FetchStarted(widgetID string) {
	o.started <- widgetID
}

func (o *recordingObserver) FetchResolved(widgetID string, outcome Outcome, _ time.Duration) {
	o.resolved <- resolvedEvent{widgetID: widgetID, outcome: outcome}
}

func (o *recordingObserver) awaitResolved(t *testing.T) resolvedEvent {
	t.Helper()
	select {
	case ev := <-o.resolved:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("expected fetch resolution")
		return resolvedEvent{}
	}
}

func series(n int, value float64) analytics.RawSample {
	values := make([]float64, n)
	for i := range values {
		values[i] = value
	}
	return analytics.RawSample{Kind: analytics.KindTimeSeries, Series: values}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testInput() Input {
	return Input{DisplayName: "Queries Executed", Chart: analytics.ChartArea, RangeLength: 7, Category: analytics.CategoryAll}
}

func newTestController(t *testing.T, fetcher Fetcher, observer Observer) *Controller {
	t.Helper()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := New("queries", testInput(), fetcher,
		WithObserver(observer),
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return now }),
	)
	t.Cleanup(c.Close)
	return c
}

func waitView(t *testing.T, c *Controller) ViewModel {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	vm, err := c.Wait(ctx)
	require.NoError(t, err)
	return vm
}

func TestNewControllerIsIdleAndLoading(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher, nil)

	vm := c.View()
	assert.Equal(t, StatusIdle, vm.Status)
	assert.True(t, vm.IsLoading)
	fetcher.assertIdle(t)

	_, err := c.Wait(context.Background())
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestMountResolvesToSuccess(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher, nil)

	require.True(t, c.Mount())
	require.False(t, c.Mount(), "second mount must not issue a fetch")

	vm := c.View()
	assert.Equal(t, StatusLoading, vm.Status)
	assert.True(t, vm.IsLoading)
	assert.Nil(t, vm.Summary)
	assert.Nil(t, vm.Series)

	call := fetcher.next(t)
	assert.Equal(t, 7, call.req.RangeLength)
	assert.Equal(t, "Queries Executed", call.req.Descriptor.Title)
	assert.Equal(t, 1.0, call.req.CategoryWeight)
	call.succeed(series(7, 200))

	vm = waitView(t, c)
	assert.Equal(t, StatusSuccess, vm.Status)
	assert.False(t, vm.IsLoading)
	assert.Empty(t, vm.ErrorMessage)
	require.NotNil(t, vm.Series)
	assert.Len(t, vm.Series.Values, 7)
	assert.Len(t, vm.Series.Labels, 7)
	assert.Equal(t, "Mar 10", vm.Series.Labels[6])
	require.NotNil(t, vm.Summary)
	require.NotNil(t, vm.Summary.Headline)
	assert.Equal(t, analytics.LabelQueriesExecuted, vm.Summary.Headline.Label)
	assert.Equal(t, "1.4k", vm.Summary.Headline.Value)
	fetcher.assertIdle(t)
}

func TestStaleResultResolvingLastIsDiscarded(t *testing.T) {
	fetcher := newGatedFetcher()
	observer := newRecordingObserver()
	c := newTestController(t, fetcher, observer)

	c.Mount()
	first := fetcher.next(t)

	in := testInput()
	in.GlobalRefresh = 1
	require.True(t, c.Update(in))
	second := fetcher.next(t)
	assert.Equal(t, int64(1), second.req.RefreshSeed)

	second.succeed(series(7, 10))
	assert.Equal(t, OutcomeSuccess, observer.awaitResolved(t).outcome)
	vm := waitView(t, c)
	require.Equal(t, StatusSuccess, vm.Status)

	first.fail(analytics.ErrDataUnavailable)
	assert.Equal(t, OutcomeDiscarded, observer.awaitResolved(t).outcome)

	vm = c.View()
	assert.Equal(t, StatusSuccess, vm.Status)
	assert.Empty(t, vm.ErrorMessage)
	require.NotNil(t, vm.Series)
	assert.Equal(t, []float64{10, 10, 10, 10, 10, 10, 10}, vm.Series.Values)
}

func TestStaleResultResolvingFirstIsDiscarded(t *testing.T) {
	fetcher := newGatedFetcher()
	observer := newRecordingObserver()
	c := newTestController(t, fetcher, observer)

	c.Mount()
	first := fetcher.next(t)
	c.Refresh()
	second := fetcher.next(t)

	first.succeed(series(7, 99))
	assert.Equal(t, OutcomeDiscarded, observer.awaitResolved(t).outcome)
	assert.Equal(t, StatusLoading, c.View().Status)

	second.succeed(series(7, 1))
	vm := waitView(t, c)
	require.NotNil(t, vm.Series)
	assert.Equal(t, 1.0, vm.Series.Values[0])
}

func TestFailureClearsPreviousSample(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher, nil)

	c.Mount()
	fetcher.next(t).succeed(series(7, 5))
	require.Equal(t, StatusSuccess, waitView(t, c).Status)

	c.Refresh()
	fetcher.next(t).fail(analytics.ErrDataUnavailable)

	vm := waitView(t, c)
	assert.Equal(t, StatusFailed, vm.Status)
	assert.Equal(t, MessageDataUnavailable, vm.ErrorMessage)
	assert.Nil(t, vm.Summary)
	assert.Nil(t, vm.Series)
	assert.False(t, vm.IsLoading)
	assert.Nil(t, c.State().Sample)
}

func TestUnknownErrorUsesGenericMessage(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher, nil)

	c.Mount()
	fetcher.next(t).fail(context.DeadlineExceeded)

	vm := waitView(t, c)
	assert.Equal(t, StatusFailed, vm.Status)
	assert.Equal(t, MessageGeneric, vm.ErrorMessage)
}

func TestRetryFromFailedStartsNewCycle(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher, nil)

	c.Mount()
	fetcher.next(t).fail(analytics.ErrDataUnavailable)
	require.Equal(t, StatusFailed, waitView(t, c).Status)

	c.Retry()
	vm := c.View()
	assert.Equal(t, StatusLoading, vm.Status)
	assert.Empty(t, vm.ErrorMessage)
	assert.Equal(t, int64(1), vm.Refresh.Local)

	call := fetcher.next(t)
	assert.Equal(t, int64(1), call.req.RefreshSeed)
	call.succeed(series(7, 3))
	assert.Equal(t, StatusSuccess, waitView(t, c).Status)
}

func TestUpdateIgnoresUnchangedInputs(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher, nil)

	c.Mount()
	fetcher.next(t)

	assert.False(t, c.Update(testInput()))
	fetcher.assertIdle(t)

	in := testInput()
	in.RangeLength = 30
	assert.True(t, c.Update(in))
	assert.Equal(t, 30, fetcher.next(t).req.RangeLength)

	in.Category = analytics.CategoryInfra
	assert.True(t, c.Update(in))
	assert.Equal(t, 1.25, fetcher.next(t).req.CategoryWeight)
}

func TestUpdateNeverLowersGlobalRefresh(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher, nil)

	in := testInput()
	in.GlobalRefresh = 4
	require.True(t, c.Update(in))
	assert.Equal(t, int64(4), fetcher.next(t).req.RefreshSeed)

	in.GlobalRefresh = 2
	assert.False(t, c.Update(in))
	fetcher.assertIdle(t)
	assert.Equal(t, int64(4), c.View().Refresh.Global)
}

func TestUpdateRedescribesOnTitleChange(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher, nil)

	c.Mount()
	fetcher.next(t)

	in := testInput()
	in.DisplayName = "Avg. Response Time"
	in.Chart = analytics.ChartLine
	require.True(t, c.Update(in))
	call := fetcher.next(t)
	assert.Equal(t, analytics.RuleResponseTime, call.req.Descriptor.Rule)
	assert.True(t, c.Descriptor().Seconds())
}

func TestCloseReleasesWaiters(t *testing.T) {
	fetcher := newGatedFetcher()
	c := New("users", testInput(), fetcher, WithLogger(quietLogger()))
	c.Mount()
	fetcher.next(t)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Wait(context.Background())
		errCh <- err
	}()

	c.Close()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatalf("waiter not released by close")
	}
	c.Refresh()
	fetcher.assertIdle(t)
}

func TestEndToEndWithSimulatedChannel(t *testing.T) {
	noWait := func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	for _, rate := range []float64{0, 1, analytics.DefaultFailureRate} {
		gen := analytics.NewGenerator(rand.New(rand.NewPCG(7, uint64(rate*100))))
		channel := analytics.NewSimulatedChannel(gen, analytics.ChannelOptions{FailureRate: rate, Sleep: noWait})
		c := New("logins", Input{DisplayName: "Unique Logins", Chart: analytics.ChartColumn, RangeLength: 7}, channel, WithLogger(quietLogger()))

		c.Mount()
		assert.Equal(t, StatusLoading, c.View().Status)

		vm := waitView(t, c)
		switch vm.Status {
		case StatusSuccess:
			require.NotNil(t, vm.Series)
			assert.Len(t, vm.Series.Values, 7)
			assert.Empty(t, vm.ErrorMessage)
		case StatusFailed:
			assert.Equal(t, MessageDataUnavailable, vm.ErrorMessage)
			assert.Nil(t, vm.Series)
			assert.Nil(t, vm.Summary)
		default:
			t.Fatalf("unexpected settled status %s", vm.Status)
		}
		if rate == 0 {
			assert.Equal(t, StatusSuccess, vm.Status)
		}
		if rate == 1 {
			assert.Equal(t, StatusFailed, vm.Status)
		}
		c.Close()
	}
}
