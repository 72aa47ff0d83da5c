package ui

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
	"github.com/odyssey-erp/odyssey-pulse/internal/analytics/svg"
	"github.com/odyssey-erp/odyssey-pulse/internal/widget"
)

type capturingLine struct {
	opts svg.LineOpts
}

func (c *capturingLine) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	c.opts = opts
	return template.HTML("<svg>line</svg>"), nil
}

func TestRangeOptionsMarksSelection(t *testing.T) {
	opts := RangeOptions(30)
	require.Len(t, opts, 3)
	assert.Equal(t, "Last 7 days", opts[0].Label)
	assert.False(t, opts[0].Selected)
	assert.True(t, opts[1].Selected)
	assert.False(t, opts[2].Selected)
}

func TestToWidgetCardSuccess(t *testing.T) {
	vm := widget.ViewModel{
		WidgetID: "users",
		Title:    "Users",
		Chart:    analytics.ChartPie,
		Status:   widget.StatusSuccess,
		Summary: &analytics.SummaryView{Items: []analytics.SummaryItem{
			{Label: "Total Users", Value: "120"},
		}},
		Series: &widget.Series{Labels: []string{"Active", "Inactive"}, Values: []float64{86, 14}},
	}
	card := ToWidgetCard(vm, "#2fa4f4", DefaultRenderers())
	assert.Equal(t, "users", card.ID)
	assert.False(t, card.Loading)
	assert.False(t, card.Failed)
	assert.Nil(t, card.Headline)
	require.Len(t, card.Items, 1)
	assert.True(t, strings.HasPrefix(string(card.ChartSVG), "<svg"))
	assert.Contains(t, string(card.ChartSVG), "#2fa4f4")
}

func TestToWidgetCardFailedHasNoChart(t *testing.T) {
	vm := widget.ViewModel{
		WidgetID:     "unique-logins",
		Title:        "Unique Logins",
		Chart:        analytics.ChartColumn,
		Status:       widget.StatusFailed,
		ErrorMessage: widget.MessageDataUnavailable,
	}
	card := ToWidgetCard(vm, "", DefaultRenderers())
	assert.True(t, card.Failed)
	assert.Equal(t, widget.MessageDataUnavailable, card.ErrorMessage)
	assert.Empty(t, card.ChartSVG)
	assert.Nil(t, card.Headline)
}

func TestToWidgetCardRoutesChartKinds(t *testing.T) {
	line := &capturingLine{}
	r := DefaultRenderers()
	r.Line = line

	vm := widget.ViewModel{
		WidgetID: "avg-response-time",
		Title:    "Avg. Response Time",
		Chart:    analytics.ChartArea,
		Status:   widget.StatusSuccess,
		Seconds:  true,
		Series:   &widget.Series{Labels: []string{"Mar 9", "Mar 10"}, Values: []float64{1.7, 2.4}},
	}
	card := ToWidgetCard(vm, "#7cb342", r)
	assert.Equal(t, template.HTML("<svg>line</svg>"), card.ChartSVG)
	assert.True(t, line.opts.Area)
	assert.Equal(t, "s", line.opts.Unit)
	assert.Equal(t, "#7cb342", line.opts.StrokeColor)

	vm.Chart = analytics.ChartBar
	vm.Series = &widget.Series{Labels: []string{"Slack", "AWS Cloud"}, Values: []float64{40, 90}}
	card = ToWidgetCard(vm, "#7ac24f", r)
	assert.Contains(t, string(card.ChartSVG), "-bar-title")
}
