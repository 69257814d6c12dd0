package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"spindle/internal/stats"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func TestRegisterMeterGauge(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	meter, err := stats.NewMeter(stats.Config{Name: "requests", Span: time.Second, Slots: 2, Clock: clock})
	if err != nil {
		t.Fatalf("new meter: %v", err)
	}

	reg := prometheus.NewRegistry()
	Init(reg)
	RegisterMeter(reg, meter)

	_ = meter.Mark(10)
	clock.now = clock.now.Add(time.Second)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, family := range families {
		if family.GetName() != "spindled_meter_rate_per_second" {
			continue
		}
		found = true
		if len(family.GetMetric()) != 1 {
			t.Fatalf("expected 1 series, got %d", len(family.GetMetric()))
		}
		if got := family.GetMetric()[0].GetGauge().GetValue(); got != 5 {
			t.Fatalf("expected rate 5, got %f", got)
		}
	}
	if !found {
		t.Fatal("expected spindled_meter_rate_per_second to be registered")
	}
}
