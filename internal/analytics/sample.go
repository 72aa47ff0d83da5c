package analytics

import "time"

// SourceNames lists the query sources in the order the categorical chart shows them.
var SourceNames = []string{"Slack", "Microsoft Teams", "AWS Cloud", "Google Cloud", "G Suite Gmail"}

// Labels for the two parts of a proportion split.
const (
	LabelActive   = "Active"
	LabelInactive = "Inactive"
)

// CategoryPoint is one bar of a categorical sample.
type CategoryPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Split is a total divided into active and inactive shares.
type Split struct {
	Total    float64 `json:"total"`
	Active   float64 `json:"active"`
	Inactive float64 `json:"inactive"`
}

// RawSample holds exactly one of the three sample shapes, matching Kind.
type RawSample struct {
	Kind       MetricKind      `json:"kind"`
	Series     []float64       `json:"series,omitempty"`
	Categories []CategoryPoint `json:"categories,omitempty"`
	Split      *Split          `json:"split,omitempty"`
}

// Values flattens the sample into the numbers a chart plots.
func (s RawSample) Values() []float64 {
	switch s.Kind {
	case KindCategorical:
		out := make([]float64, 0, len(s.Categories))
		for _, point := range s.Categories {
			out = append(out, point.Value)
		}
		return out
	case KindProportion:
		if s.Split == nil {
			return nil
		}
		return []float64{s.Split.Active, s.Split.Inactive}
	default:
		out := make([]float64, len(s.Series))
		copy(out, s.Series)
		return out
	}
}

// Labels returns the axis labels matching Values. Time series are labelled
// with the trailing days ending at now.
func (s RawSample) Labels(now time.Time) []string {
	switch s.Kind {
	case KindCategorical:
		out := make([]string, 0, len(s.Categories))
		for _, point := range s.Categories {
			out = append(out, point.Label)
		}
		return out
	case KindProportion:
		return []string{LabelActive, LabelInactive}
	default:
		return DateLabels(now, len(s.Series))
	}
}

// DateLabels returns short day labels ("Jan 2") for the n days ending at now.
func DateLabels(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	labels := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		labels = append(labels, now.AddDate(0, 0, -i).Format("Jan 2"))
	}
	return labels
}
