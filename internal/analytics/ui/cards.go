package ui

import (
	"fmt"
	"html/template"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
	"github.com/odyssey-erp/odyssey-pulse/internal/analytics/svg"
	"github.com/odyssey-erp/odyssey-pulse/internal/widget"
)

// Card chart viewport.
const (
	CardWidth  = 480
	CardHeight = 200
)

// RangeOptions lists the selectable ranges with the current one selected.
func RangeOptions(selected int) []RangeOption {
	out := make([]RangeOption, 0, len(analytics.RangeOptions))
	for _, days := range analytics.RangeOptions {
		out = append(out, RangeOption{
			Days:     days,
			Label:    fmt.Sprintf("Last %d days", days),
			Selected: days == selected,
		})
	}
	return out
}

// ToWidgetCard converts a widget view model into a card. A chart that fails
// to render leaves the card without a chart rather than failing the page.
func ToWidgetCard(vm widget.ViewModel, color string, r Renderers) WidgetCard {
	card := WidgetCard{
		ID:           vm.WidgetID,
		Title:        vm.Title,
		Chart:        vm.Chart,
		Color:        color,
		Status:       vm.Status,
		Loading:      vm.IsLoading,
		Failed:       vm.Status == widget.StatusFailed,
		ErrorMessage: vm.ErrorMessage,
		RequestID:    vm.RequestID,
	}
	if vm.Summary != nil {
		card.Headline = vm.Summary.Headline
		card.Items = vm.Summary.Items
	}
	if vm.Series != nil && len(vm.Series.Values) > 0 {
		if chart, err := renderChart(vm, color, r); err == nil {
			card.ChartSVG = chart
		}
	}
	return card
}

func renderChart(vm widget.ViewModel, color string, r Renderers) (template.HTML, error) {
	series := vm.Series
	switch vm.Chart {
	case analytics.ChartPie:
		if r.Pie == nil {
			return "", fmt.Errorf("ui: pie renderer missing")
		}
		return r.Pie.Pie(CardWidth, CardHeight, series.Values, series.Labels, svg.PieOpts{
			Title:      vm.Title,
			Colors:     []string{fallbackColor(color), "#cfd8dc"},
			InnerRatio: 0.55,
		})
	case analytics.ChartColumn, analytics.ChartBar:
		if r.Bar == nil {
			return "", fmt.Errorf("ui: bar renderer missing")
		}
		return r.Bar.Bars(CardWidth, CardHeight, series.Values, series.Labels, svg.BarOpts{
			Title:      vm.Title,
			Color:      color,
			Horizontal: vm.Chart == analytics.ChartBar,
		})
	default:
		if r.Line == nil {
			return "", fmt.Errorf("ui: line renderer missing")
		}
		opts := svg.LineOpts{
			Title:       vm.Title,
			StrokeColor: color,
			Area:        vm.Chart == analytics.ChartArea,
		}
		if vm.Seconds {
			opts.Unit = "s"
		}
		return r.Line.Line(CardWidth, CardHeight, series.Values, series.Labels, opts)
	}
}

func fallbackColor(color string) string {
	if color == "" {
		return "#2fa4f4"
	}
	return color
}
