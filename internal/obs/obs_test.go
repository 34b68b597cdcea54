package obs

import (
	"bytes"
	"strings"
	"testing"

	metrics "github.com/rcrowley/go-metrics"
)

func TestLogrusLogger_RespectsMinLevel(t *testing.T) {
	l := NewLogrusLogger(Warn)
	var buf bytes.Buffer
	l.L.SetOutput(&buf)

	l.Logf(Info, "should not appear")
	if buf.Len() != 0 {
		t.Fatalf("Info below the Warn threshold was logged: %q", buf.String())
	}

	l.Logf(Error, "should appear: %s", "detail")
	if !strings.Contains(buf.String(), "should appear: detail") {
		t.Fatalf("Error at/above the threshold is missing from output: %q", buf.String())
	}
}

func TestNopLogger_DiscardsEverything(t *testing.T) {
	NopLogger{}.Logf(Error, "ignored %d", 1)
}

func TestGoMetricsMeter_CounterAccumulates(t *testing.T) {
	m := &GoMetricsMeter{Registry: metrics.NewRegistry()}
	m.Counter("requests.total", 1)
	m.Counter("requests.total", 1)

	c := metrics.GetOrRegisterCounter("requests.total", m.Registry)
	if c.Count() != 2 {
		t.Fatalf("count = %d, want 2", c.Count())
	}
}

func TestGoMetricsMeter_LabelsFoldIntoName(t *testing.T) {
	m := &GoMetricsMeter{Registry: metrics.NewRegistry()}
	m.Counter("requests.total", 1, Label{Key: "path", Value: "/x"})

	c := metrics.GetOrRegisterCounter("requests.total.path=/x", m.Registry)
	if c.Count() != 1 {
		t.Fatalf("labeled counter count = %d, want 1", c.Count())
	}
}

func TestNopMeter_DiscardsEverything(t *testing.T) {
	NopMeter{}.Counter("x", 1)
	NopMeter{}.Histogram("x", 1)
}
