package analytics

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// MetricKind describes the shape of the data a widget renders.
type MetricKind string

const (
	// KindTimeSeries is a counter sampled once per day of the selected range.
	KindTimeSeries MetricKind = "time_series"
	// KindCategorical is one value per known query source.
	KindCategorical MetricKind = "categorical"
	// KindProportion splits one synthesized total into active and inactive shares.
	KindProportion MetricKind = "proportion"
)

// ChartType is the visual form requested by the view layer.
type ChartType string

const (
	ChartLine   ChartType = "line"
	ChartArea   ChartType = "area"
	ChartColumn ChartType = "column"
	ChartBar    ChartType = "bar"
	ChartPie    ChartType = "pie"
)

// Kind maps a chart type onto the metric shape it renders. Unknown chart
// types fall back to a time series.
func (c ChartType) Kind() MetricKind {
	switch c {
	case ChartPie:
		return KindProportion
	case ChartBar:
		return KindCategorical
	default:
		return KindTimeSeries
	}
}

// Category scopes a widget to a product area; each category scales volumes.
type Category string

const (
	CategoryAll          Category = "all"
	CategorySecurity     Category = "security"
	CategoryProductivity Category = "productivity"
	CategoryInfra        Category = "infra"
)

var categoryWeights = map[Category]float64{
	CategoryAll:          1,
	CategorySecurity:     0.9,
	CategoryProductivity: 1.1,
	CategoryInfra:        1.25,
}

// Weight returns the multiplicative factor applied to generated volumes.
func (c Category) Weight() float64 {
	if w, ok := categoryWeights[c]; ok {
		return w
	}
	return 1
}

// DerivationRule selects how a time series is reduced into its headline.
type DerivationRule string

const (
	RuleSum          DerivationRule = "sum"
	RuleUsers        DerivationRule = "users"
	RuleLogins       DerivationRule = "logins"
	RuleQueries      DerivationRule = "queries"
	RuleResponseTime DerivationRule = "response_time"
)

// VolumeBounds is the half-open draw range for generated values.
type VolumeBounds struct {
	Min        float64
	Max        float64
	Fractional bool
}

// Bounds used by the generator.
var (
	ResponseTimeBounds = VolumeBounds{Min: 1.6, Max: 3.4, Fractional: true}
	QueryBounds        = VolumeBounds{Min: 140, Max: 560}
	AudienceBounds     = VolumeBounds{Min: 10, Max: 65}
	DefaultBounds      = VolumeBounds{Min: 30, Max: 100}
	SourceBounds       = VolumeBounds{Min: 20, Max: 200}
	ProportionBounds   = VolumeBounds{Min: 420, Max: 700}
)

// Descriptor is the typed metric configuration of a widget. It is resolved
// once from the display title so data cycles never re-parse names.
type Descriptor struct {
	Title  string
	Chart  ChartType
	Kind   MetricKind
	Bounds VolumeBounds
	Rule   DerivationRule
}

// Describe builds the Descriptor for a widget title and chart type.
func Describe(title string, chart ChartType) Descriptor {
	if chart == "" {
		chart = ChartLine
	}
	d := Descriptor{Title: title, Chart: chart, Kind: chart.Kind(), Rule: RuleSum}
	name := cases.Fold().String(title)

	switch d.Kind {
	case KindProportion:
		d.Bounds = ProportionBounds
		return d
	case KindCategorical:
		d.Bounds = SourceBounds
		return d
	}

	// Draw bounds and headline rules are matched in different orders.
	switch {
	case strings.Contains(name, "response"):
		d.Bounds = ResponseTimeBounds
	case strings.Contains(name, "quer"):
		d.Bounds = QueryBounds
	case strings.Contains(name, "user"), strings.Contains(name, "login"):
		d.Bounds = AudienceBounds
	default:
		d.Bounds = DefaultBounds
	}

	switch {
	case strings.Contains(name, "user"):
		d.Rule = RuleUsers
	case strings.Contains(name, "login"):
		d.Rule = RuleLogins
	case strings.Contains(name, "quer"):
		d.Rule = RuleQueries
	case strings.Contains(name, "response"):
		d.Rule = RuleResponseTime
	}
	return d
}

// Seconds reports whether values carry a seconds unit.
func (d Descriptor) Seconds() bool {
	return d.Bounds.Fractional
}

// DefaultRange is used whenever the requested range is not a positive number.
const DefaultRange = 30

// RangeOptions lists the ranges offered by the time range filter.
var RangeOptions = []int{7, 30, 90}

// ParseRange normalises a raw time range value into a day count.
func ParseRange(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultRange
	}
	return n
}
