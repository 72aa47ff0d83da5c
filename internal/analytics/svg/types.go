package svg

// LineOpts customises the line and area chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	// FillColor is painted under the line when Area is set.
	FillColor  string
	AxisColor  string
	GridColor  string
	Padding    float64
	Area       bool
	ShowDots   bool
	TickCount  int
	LabelEvery int
	// Unit is appended to tick values, e.g. "s" for response times.
	Unit string
}

// BarOpts customises the bar chart renderer. Horizontal bars are drawn when
// Horizontal is set, vertical columns otherwise.
type BarOpts struct {
	Title       string
	Description string
	Color       string
	AxisColor   string
	GridColor   string
	Padding     float64
	Horizontal  bool
	TickCount   int
	LabelEvery  int
}

// PieOpts customises the pie chart renderer.
type PieOpts struct {
	Title       string
	Description string
	Colors      []string
	LabelColor  string
	// InnerRatio turns the pie into a donut when in (0, 1).
	InnerRatio float64
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 4
	// DefaultMaxLabels caps the number of category axis labels drawn.
	DefaultMaxLabels = 8
)

var defaultPalette = []string{"#2fa4f4", "#cfd8dc", "#7ac24f", "#f4a742", "#8e6bd8"}
