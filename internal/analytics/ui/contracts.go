package ui

import (
	"html/template"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
	"github.com/odyssey-erp/odyssey-pulse/internal/analytics/svg"
	"github.com/odyssey-erp/odyssey-pulse/internal/widget"
)

// RangeOption is one entry of the time range selector.
type RangeOption struct {
	Days     int
	Label    string
	Selected bool
}

// WidgetCard is everything the card template needs for one widget.
type WidgetCard struct {
	ID           string
	Title        string
	Chart        analytics.ChartType
	Color        string
	Status       widget.Status
	Loading      bool
	Failed       bool
	ErrorMessage string
	Headline     *analytics.SummaryItem
	Items        []analytics.SummaryItem
	ChartSVG     template.HTML
	RequestID    string
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Range        int
	RangeOptions []RangeOption
	Refresh      int64
	Loading      bool
	Widgets      []WidgetCard
}

// LineRenderer abstracts SVG line and area chart rendering.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG column and bar chart rendering.
type BarRenderer interface {
	Bars(width, height int, series []float64, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// PieRenderer abstracts SVG pie chart rendering.
type PieRenderer interface {
	Pie(width, height int, values []float64, labels []string, opts svg.PieOpts) (template.HTML, error)
}

// Renderers bundles the chart renderers used to draw cards.
type Renderers struct {
	Line LineRenderer
	Bar  BarRenderer
	Pie  PieRenderer
}

// DefaultRenderers draws with the svg package.
func DefaultRenderers() Renderers {
	return Renderers{Line: svgRenderer{}, Bar: svgRenderer{}, Pie: svgRenderer{}}
}

type svgRenderer struct{}

func (svgRenderer) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, series, labels, opts)
}

func (svgRenderer) Bars(width, height int, series []float64, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, series, labels, opts)
}

func (svgRenderer) Pie(width, height int, values []float64, labels []string, opts svg.PieOpts) (template.HTML, error) {
	return svg.Pie(width, height, values, labels, opts)
}
