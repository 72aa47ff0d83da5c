package analytics

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

func newTestGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func TestGenerateTimeSeriesLengthMatchesRange(t *testing.T) {
	gen := newTestGenerator(1)
	titles := []string{"Queries Executed", "Unique Logins", "Avg. Response Time", "Firewall API Calls"}
	for _, title := range titles {
		d := Describe(title, ChartArea)
		for _, rangeLength := range []int{1, 7, 30, 90, 365} {
			sample := gen.Generate(d, rangeLength, 3, 1)
			if sample.Kind != KindTimeSeries {
				t.Fatalf("%s: expected time series, got %s", title, sample.Kind)
			}
			if len(sample.Series) != rangeLength {
				t.Fatalf("%s: expected %d points, got %d", title, rangeLength, len(sample.Series))
			}
			if sample.Split != nil || len(sample.Categories) != 0 {
				t.Fatalf("%s: expected a single sample shape", title)
			}
		}
	}
}

func TestGenerateDefaultsNonPositiveRange(t *testing.T) {
	gen := newTestGenerator(2)
	sample := gen.Generate(Describe("Firewall API Calls", ChartArea), 0, 0, 1)
	if len(sample.Series) != DefaultRange {
		t.Fatalf("expected %d points, got %d", DefaultRange, len(sample.Series))
	}
}

func TestGenerateTimeSeriesBounds(t *testing.T) {
	gen := newTestGenerator(3)
	cases := []struct {
		title string
		min   float64
		max   float64
	}{
		{"Queries Executed", 140, 560},
		{"Unique Logins", 10, 65},
		{"Users", 10, 65},
		{"Firewall API Calls", 30, 100},
	}
	for _, tc := range cases {
		sample := gen.Generate(Describe(tc.title, ChartArea), 90, 11, 1)
		for _, v := range sample.Series {
			if v < tc.min || v >= tc.max {
				t.Fatalf("%s: value %.2f outside [%v,%v)", tc.title, v, tc.min, tc.max)
			}
			if v != math.Trunc(v) {
				t.Fatalf("%s: expected integer value, got %v", tc.title, v)
			}
		}
	}
}

func TestGenerateResponseTimeIsFractional(t *testing.T) {
	gen := newTestGenerator(4)
	sample := gen.Generate(Describe("Avg. Response Time", ChartLine), 90, 0, CategoryInfra.Weight())
	for _, v := range sample.Series {
		if v < 1.6 || v > 3.4 {
			t.Fatalf("response time %.2f outside [1.6,3.4]", v)
		}
		if math.Abs(v*100-math.Round(v*100)) > 1e-6 {
			t.Fatalf("expected two decimal precision, got %v", v)
		}
	}
}

func TestGenerateProportionSplitAddsUp(t *testing.T) {
	gen := newTestGenerator(5)
	d := Describe("Users", ChartPie)
	for seed := int64(0); seed < 500; seed++ {
		for _, cat := range []Category{CategoryAll, CategorySecurity, CategoryProductivity, CategoryInfra} {
			sample := gen.Generate(d, 30, seed, cat.Weight())
			if sample.Split == nil {
				t.Fatalf("expected split sample")
			}
			split := sample.Split
			if split.Inactive < 0 {
				t.Fatalf("inactive must not be negative: %+v", split)
			}
			if split.Active+split.Inactive != split.Total {
				t.Fatalf("active+inactive != total: %+v", split)
			}
			if split.Total < math.Round(420*cat.Weight()) || split.Total > math.Round(699*cat.Weight()) {
				t.Fatalf("total %.0f outside scaled bounds for %s", split.Total, cat)
			}
			if split.Active != math.Round(split.Total*0.86) {
				t.Fatalf("active share mismatch: %+v", split)
			}
		}
	}
}

func TestGenerateCategoricalFixedOrder(t *testing.T) {
	gen := newTestGenerator(6)
	d := Describe("Queries by Source", ChartBar)
	for seed := int64(0); seed < 50; seed++ {
		sample := gen.Generate(d, 7, seed, 1.1)
		if len(sample.Categories) != len(SourceNames) {
			t.Fatalf("expected %d sources, got %d", len(SourceNames), len(sample.Categories))
		}
		for i, point := range sample.Categories {
			if point.Label != SourceNames[i] {
				t.Fatalf("expected %s at %d, got %s", SourceNames[i], i, point.Label)
			}
			if point.Value < math.Round(20*1.1) || point.Value > math.Round(199*1.1) {
				t.Fatalf("value %.0f outside scaled bounds", point.Value)
			}
		}
	}
}

func TestGenerateWeightDefaultsToOne(t *testing.T) {
	a := newTestGenerator(9).Generate(Describe("Firewall API Calls", ChartArea), 10, 0, 0)
	b := newTestGenerator(9).Generate(Describe("Firewall API Calls", ChartArea), 10, 0, 1)
	for i := range a.Series {
		if a.Series[i] != b.Series[i] {
			t.Fatalf("expected zero weight to behave as 1: %v vs %v", a.Series, b.Series)
		}
	}
}

func TestChannelSharesGeneratorDraws(t *testing.T) {
	a, b := newTestGenerator(9), newTestGenerator(9)
	for i := 0; i < 100; i++ {
		x, y := a.float64(), b.float64()
		if x != y {
			t.Fatalf("draw %d: same seed gave %v and %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of [0,1): %v", i, x)
		}
	}

	// A channel with a delay span takes its delay from the shared stream.
	channel := NewSimulatedChannel(a, ChannelOptions{MaxDelay: time.Second})
	want := time.Duration(b.float64() * float64(time.Second))
	if got := channel.delay(); got != want {
		t.Fatalf("delay: got %v, want %v", got, want)
	}
	if x, y := a.float64(), b.float64(); x != y {
		t.Fatalf("streams diverged after delay draw: %v vs %v", x, y)
	}
}
