package analytics

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Share of a proportion total counted as active.
const activeShare = 0.86

// seedPerturbation shifts each draw by refreshSeed*seedPerturbation.
const seedPerturbation = 0.0001

// Generator synthesises raw samples. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator wraps rng; a nil rng is replaced by a randomly seeded PCG.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{rng: rng}
}

// float64 returns a uniform draw in [0,1).
func (g *Generator) float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// Generate builds a sample whose shape follows d.Kind and rangeLength. A
// non-positive rangeLength is treated as DefaultRange; a non-positive weight as 1.
func (g *Generator) Generate(d Descriptor, rangeLength int, refreshSeed int64, weight float64) RawSample {
	if rangeLength <= 0 {
		rangeLength = DefaultRange
	}
	if weight <= 0 {
		weight = 1
	}

	switch d.Kind {
	case KindProportion:
		total := g.draw(d.Bounds, refreshSeed, weight)
		active := math.Round(total * activeShare)
		inactive := math.Max(0, total-active)
		return RawSample{Kind: KindProportion, Split: &Split{Total: active + inactive, Active: active, Inactive: inactive}}
	case KindCategorical:
		points := make([]CategoryPoint, 0, len(SourceNames))
		for _, name := range SourceNames {
			points = append(points, CategoryPoint{Label: name, Value: g.draw(d.Bounds, refreshSeed, weight)})
		}
		return RawSample{Kind: KindCategorical, Categories: points}
	}

	series := make([]float64, rangeLength)
	for i := range series {
		if d.Bounds.Fractional {
			series[i] = g.fraction(d.Bounds)
			continue
		}
		series[i] = g.draw(d.Bounds, refreshSeed, weight)
	}
	return RawSample{Kind: KindTimeSeries, Series: series}
}

// draw picks an integer in [b.Min, b.Max) perturbed by seed, then scales it.
func (g *Generator) draw(b VolumeBounds, seed int64, weight float64) float64 {
	u := math.Mod(g.float64()+float64(seed)*seedPerturbation, 1)
	if u < 0 {
		u += 1
	}
	return math.Round((b.Min + math.Floor(u*(b.Max-b.Min))) * weight)
}

// fraction picks a value in [b.Min, b.Max] at two decimal precision. Fractional
// metrics are rates and are not scaled by category.
func (g *Generator) fraction(b VolumeBounds) float64 {
	v := b.Min + g.float64()*(b.Max-b.Min)
	return math.Round(v*100) / 100
}
