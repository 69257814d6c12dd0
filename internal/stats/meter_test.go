package stats

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestMeterRate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	meter, err := NewMeter(Config{Name: "requests", Span: time.Second, Slots: 2, Clock: clock})
	if err != nil {
		t.Fatalf("new meter: %v", err)
	}

	if err := meter.Mark(10); err != nil {
		t.Fatalf("mark: %v", err)
	}

	rate, err := meter.Rate()
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rate != 0 {
		t.Fatalf("expected 0 before the slot expires, got %f", rate)
	}

	clock.advance(time.Second)
	rate, err = meter.Rate()
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rate != 5 {
		t.Fatalf("expected 5 events/s over a 2s window, got %f", rate)
	}
}

func TestMeterTotalDropsExpiredSlots(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	meter, err := NewMeter(Config{Name: "requests", Span: time.Second, Slots: 2, Clock: clock})
	if err != nil {
		t.Fatalf("new meter: %v", err)
	}

	_ = meter.Mark(10)
	clock.advance(time.Second)
	_ = meter.Mark(12)
	clock.advance(time.Second)

	total, err := meter.Total()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 22 {
		t.Fatalf("expected 22, got %d", total)
	}

	// Three idle windows push everything out of retention.
	clock.advance(3 * time.Second)
	total, err = meter.Total()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected 0 after idle windows, got %d", total)
	}
}

func TestLatencyAverage(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	latency, err := NewLatency(Config{Name: "handle", Span: time.Second, Slots: 2, Clock: clock})
	if err != nil {
		t.Fatalf("new latency: %v", err)
	}

	_ = latency.Observe(100 * time.Millisecond)
	_ = latency.Observe(300 * time.Millisecond)

	clock.advance(time.Second)
	avg, err := latency.Average()
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	if avg != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", avg)
	}
}

func TestLatencyAverageEmptyWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	latency, err := NewLatency(Config{Name: "handle", Span: time.Second, Slots: 2, Clock: clock})
	if err != nil {
		t.Fatalf("new latency: %v", err)
	}

	avg, err := latency.Average()
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	if avg != 0 {
		t.Fatalf("expected 0 with no observations, got %v", avg)
	}
}
