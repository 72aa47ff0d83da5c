package widget

import (
	"errors"
	"time"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
)

// Status is the lifecycle phase of a widget.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// User facing failure messages.
const (
	MessageDataUnavailable = "Failed to load chart data"
	MessageGeneric         = "Something went wrong"
)

var (
	// ErrNotMounted is returned when waiting on a widget that never fetched.
	ErrNotMounted = errors.New("widget: not mounted")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("widget: closed")
)

// FetchState is the tagged state of a widget. Sample is set only for
// StatusSuccess and Reason only for StatusFailed.
type FetchState struct {
	Status Status
	Sample *analytics.RawSample
	Reason string
}

// RefreshSignal composes the dashboard-wide and the widget-local refresh
// counters. Both only ever grow.
type RefreshSignal struct {
	Global int64 `json:"global"`
	Local  int64 `json:"local"`
}

// Seed is the combined counter that triggers and perturbs a fetch cycle.
func (s RefreshSignal) Seed() int64 {
	return s.Global + s.Local
}

// Input is what the dashboard container feeds into a widget.
type Input struct {
	DisplayName   string
	Chart         analytics.ChartType
	RangeLength   int
	Category      analytics.Category
	GlobalRefresh int64
}

func (in Input) normalize() Input {
	if in.RangeLength <= 0 {
		in.RangeLength = analytics.DefaultRange
	}
	if in.Category == "" {
		in.Category = analytics.CategoryAll
	}
	if in.Chart == "" {
		in.Chart = analytics.ChartLine
	}
	if in.GlobalRefresh < 0 {
		in.GlobalRefresh = 0
	}
	return in
}

// trigger is the dependency set whose change starts a new fetch cycle.
type trigger struct {
	name        string
	chart       analytics.ChartType
	rangeLength int
	category    analytics.Category
	seed        int64
}

// Series is the chart-ready data of a widget.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ViewModel is the render-ready state consumed by the view layer.
type ViewModel struct {
	WidgetID     string                 `json:"id"`
	Title        string                 `json:"title"`
	Chart        analytics.ChartType    `json:"chart"`
	Status       Status                 `json:"status"`
	IsLoading    bool                   `json:"isLoading"`
	Summary      *analytics.SummaryView `json:"summary,omitempty"`
	Series       *Series                `json:"series,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Seconds      bool                   `json:"seconds,omitempty"`
	RequestID    string                 `json:"requestId,omitempty"`
	Refresh      RefreshSignal          `json:"refresh"`
	UpdatedAt    time.Time              `json:"updatedAt,omitempty"`
}

// Outcome labels the resolution of a fetch.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeDiscarded Outcome = "discarded"
)

// Observer receives fetch lifecycle notifications.
type Observer interface {
	FetchStarted(widgetID string)
	FetchResolved(widgetID string, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) FetchStarted(string)                           {}
func (nopObserver) FetchResolved(string, Outcome, time.Duration) {}

func messageFor(err error) string {
	if errors.Is(err, analytics.ErrDataUnavailable) {
		return MessageDataUnavailable
	}
	return MessageGeneric
}
