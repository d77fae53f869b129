// Package stats accumulates per-subset statistics over the values a merge
// actually imported, for the end-of-run report.
package stats

import (
	"log/slog"
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
)

// DefaultAccuracy is the relative accuracy of the quantile sketch.
const DefaultAccuracy = 0.01

// SubsetStats maintains running statistics for one subset's merge.
type SubsetStats struct {
	device   string
	interval string

	count int64
	sum   float64
	min   float64
	max   float64

	// sketch is nil when quantiles are disabled or construction failed;
	// the plain aggregates still work.
	sketch *ddsketch.DDSketch
}

// New creates a SubsetStats for one device/interval pair.
func New(device, interval string, quantiles bool) *SubsetStats {
	s := &SubsetStats{
		device:   device,
		interval: interval,
		min:      math.MaxFloat64,
		max:      -math.MaxFloat64,
	}
	if quantiles {
		sketch, err := ddsketch.NewDefaultDDSketch(DefaultAccuracy)
		if err == nil {
			s.sketch = sketch
		}
	}
	return s
}

// Add records one imported value.
func (s *SubsetStats) Add(value float64) {
	if math.IsNaN(value) {
		return
	}

	s.count++
	s.sum += value
	if value < s.min {
		s.min = value
	}
	if value > s.max {
		s.max = value
	}
	if s.sketch != nil {
		s.sketch.Add(value)
	}
}

// Count returns the number of imported values.
func (s *SubsetStats) Count() int64 {
	return s.count
}

// Quantile returns the q-quantile of the imported values, or NaN when
// quantiles are unavailable.
func (s *SubsetStats) Quantile(q float64) float64 {
	if s.sketch == nil || s.count == 0 {
		return math.NaN()
	}
	v, err := s.sketch.GetValueAtQuantile(q)
	if err != nil {
		return math.NaN()
	}
	return v
}

// LogSummary emits the subset's summary line.
func (s *SubsetStats) LogSummary(log *slog.Logger) {
	if s.count == 0 {
		log.Info("no samples imported",
			"device", s.device, "interval", s.interval)
		return
	}

	attrs := []any{
		"device", s.device,
		"interval", s.interval,
		"imported", s.count,
		"min", s.min,
		"max", s.max,
		"avg", s.sum / float64(s.count),
	}
	if p50 := s.Quantile(0.5); !math.IsNaN(p50) {
		attrs = append(attrs, "p50", p50, "p95", s.Quantile(0.95))
	}
	log.Info("subset merged", attrs...)
}
