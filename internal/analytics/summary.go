package analytics

import (
	"fmt"
	"math"
	"strconv"
)

// Headline labels shown on the widget cards.
const (
	LabelTotalUsers      = "Total Users"
	LabelQueriesBySource = "Queries by Source"
	LabelUniqueLogins    = "Number of Unique Logins"
	LabelQueriesExecuted = "Queries Executed in Workflow"
	LabelResponseTime    = "Avg. Response Time"
)

const (
	usersPerEvent     = 0.42
	minEstimatedUsers = 120
	activeUserShare   = 0.92
	loginsPerEvent    = 0.11
)

// SummaryItem is a single label/value row of a widget summary.
type SummaryItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SummaryView is either a single headline or an ordered list of rows.
type SummaryView struct {
	Headline *SummaryItem `json:"headline,omitempty"`
	Items    []SummaryItem `json:"items,omitempty"`
}

// IsList reports whether the summary renders as a list of rows.
func (v SummaryView) IsList() bool {
	return len(v.Items) > 0
}

// Summarize reduces a raw sample into the headline metrics for a widget.
func Summarize(d Descriptor, sample RawSample) SummaryView {
	switch d.Kind {
	case KindProportion:
		var split Split
		if sample.Split != nil {
			split = *sample.Split
		}
		return userBreakdown(split.Total, split.Active, split.Inactive)
	case KindCategorical:
		var total float64
		for _, point := range sample.Categories {
			total += point.Value
		}
		return headline(LabelQueriesBySource, FormatCompact(total))
	}

	total := sum(sample.Series)
	switch d.Rule {
	case RuleUsers:
		users := math.Max(minEstimatedUsers, math.Round(total*usersPerEvent))
		active := math.Round(users * activeUserShare)
		return userBreakdown(users, active, users-active)
	case RuleLogins:
		return headline(LabelUniqueLogins, FormatCompact(math.Round(total*loginsPerEvent)))
	case RuleQueries:
		return headline(LabelQueriesExecuted, FormatCompact(total))
	case RuleResponseTime:
		avg := total / math.Max(1, float64(len(sample.Series)))
		return headline(LabelResponseTime, fmt.Sprintf("%.2fs", avg))
	default:
		return headline(d.Title, FormatCompact(total))
	}
}

// FormatCompact abbreviates large values with k and M suffixes.
func FormatCompact(value float64) string {
	switch {
	case value >= 1_000_000:
		return fmt.Sprintf("%.1fM", value/1_000_000)
	case value >= 1_000:
		return fmt.Sprintf("%.1fk", value/1_000)
	default:
		return strconv.FormatFloat(math.Round(value), 'f', 0, 64)
	}
}

func headline(label, value string) SummaryView {
	return SummaryView{Headline: &SummaryItem{Label: label, Value: value}}
}

func userBreakdown(total, active, inactive float64) SummaryView {
	return SummaryView{Items: []SummaryItem{
		{Label: LabelTotalUsers, Value: formatCount(total)},
		{Label: LabelActive, Value: formatCount(active)},
		{Label: LabelInactive, Value: formatCount(inactive)},
	}}
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
