// Package stats provides the windowed meters the service exposes, built
// on the rolling spinner: an event-rate meter and a latency tracker.
package stats

import (
	"time"

	"go.uber.org/zap"

	"spindle/internal/slot"
	"spindle/internal/spinner"
)

// Config sizes a meter's rolling window. Clock is a test hook; leave nil
// for the wall clock.
type Config struct {
	Name   string
	Span   time.Duration
	Slots  int
	Clock  spinner.Clock
	Logger *zap.Logger
}

// Meter tracks an event rate over the retained window.
type Meter struct {
	name   string
	window time.Duration
	spin   *spinner.Spinner[slot.Counter, int64]
}

func NewMeter(cfg Config) (*Meter, error) {
	if cfg.Span == 0 {
		cfg.Span = time.Second
	}
	if cfg.Slots == 0 {
		cfg.Slots = 1
	}
	spin, err := spinner.New(spinner.Config[slot.Counter, int64]{
		SlotSpan:  cfg.Span,
		Slots:     cfg.Slots,
		NewSlot:   slot.NewCounter,
		Aggregate: slot.SumCounters,
		Clock:     cfg.Clock,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Meter{
		name:   cfg.Name,
		window: cfg.Span * time.Duration(cfg.Slots),
		spin:   spin,
	}, nil
}

func (m *Meter) Name() string {
	return m.name
}

// Mark records n events into the current slot.
func (m *Meter) Mark(n int64) error {
	s, err := m.spin.CurrentSlot()
	if err != nil {
		return err
	}
	s.Add(n)
	return nil
}

// Rate returns events per second averaged over the full retained window.
func (m *Meter) Rate() (float64, error) {
	total, err := m.spin.Data()
	if err != nil {
		return 0, err
	}
	return float64(total) / m.window.Seconds(), nil
}

// Total returns the event count across the retained window.
func (m *Meter) Total() (int64, error) {
	return m.spin.Data()
}

// Latency tracks the mean of observed durations over the retained window.
type Latency struct {
	name string
	spin *spinner.Spinner[slot.Sample, float64]
}

func NewLatency(cfg Config) (*Latency, error) {
	spin, err := spinner.New(spinner.Config[slot.Sample, float64]{
		SlotSpan:  cfg.Span,
		Slots:     cfg.Slots,
		NewSlot:   slot.NewSample,
		Aggregate: slot.AverageSamples,
		Clock:     cfg.Clock,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Latency{name: cfg.Name, spin: spin}, nil
}

func (l *Latency) Name() string {
	return l.name
}

func (l *Latency) Observe(d time.Duration) error {
	s, err := l.spin.CurrentSlot()
	if err != nil {
		return err
	}
	s.Observe(d.Seconds())
	return nil
}

// Average returns the mean observed duration over the retained window,
// zero when no observations landed in it.
func (l *Latency) Average() (time.Duration, error) {
	seconds, err := l.spin.Data()
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
