package obs

import (
	metrics "github.com/rcrowley/go-metrics"
)

// Label is a key/value pair attached to measurements. go-metrics has no
// native label concept, so labels are folded into the metric name
// (name + "." + key + "=" + value) the way flat metrics registries
// commonly do.
type Label struct {
	Key   string
	Value string
}

// Meter is a small interface for emitting counters and histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// GoMetricsMeter bridges Meter onto a github.com/rcrowley/go-metrics
// registry. A nil Registry falls back to metrics.DefaultRegistry.
type GoMetricsMeter struct {
	Registry metrics.Registry
}

// NewGoMetricsMeter returns a GoMetricsMeter backed by a fresh registry.
func NewGoMetricsMeter() *GoMetricsMeter {
	return &GoMetricsMeter{Registry: metrics.NewRegistry()}
}

func (m *GoMetricsMeter) registry() metrics.Registry {
	if m.Registry == nil {
		return metrics.DefaultRegistry
	}
	return m.Registry
}

func labeledName(name string, labels []Label) string {
	for _, l := range labels {
		name += "." + l.Key + "=" + l.Value
	}
	return name
}

func (m *GoMetricsMeter) Counter(name string, value float64, labels ...Label) {
	c := metrics.GetOrRegisterCounter(labeledName(name, labels), m.registry())
	c.Inc(int64(value))
}

func (m *GoMetricsMeter) Histogram(name string, value float64, labels ...Label) {
	h := metrics.GetOrRegisterHistogram(labeledName(name, labels), m.registry(), metrics.NewExpDecaySample(1028, 0.015))
	h.Update(int64(value))
}
