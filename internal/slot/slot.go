// Package slot provides accumulator types for spinner time slots, plus
// the stock aggregation funcs built on them. Slot types synchronize their
// own writes: the spinner hands the live slot to concurrent callers
// without locking, so every mutator here is atomic.
package slot

import "go.uber.org/atomic"

// Counter counts events within one time slot.
type Counter struct {
	n atomic.Int64
}

func NewCounter() (*Counter, error) {
	return &Counter{}, nil
}

func (c *Counter) Inc() {
	c.n.Inc()
}

func (c *Counter) Add(delta int64) {
	c.n.Add(delta)
}

func (c *Counter) Value() int64 {
	return c.n.Load()
}

// Sample accumulates float64 observations within one time slot as a
// running sum and count.
type Sample struct {
	sum   atomic.Float64
	count atomic.Int64
}

func NewSample() (*Sample, error) {
	return &Sample{}, nil
}

func (s *Sample) Observe(v float64) {
	s.sum.Add(v)
	s.count.Inc()
}

func (s *Sample) Sum() float64 {
	return s.sum.Load()
}

func (s *Sample) Count() int64 {
	return s.count.Load()
}

// SumCounters totals every retained counter. Returns 0 for an empty
// retained sequence.
func SumCounters(retained []*Counter, _ *Counter) (int64, error) {
	var sum int64
	for _, c := range retained {
		sum += c.Value()
	}
	return sum, nil
}

// AverageCounters returns the mean per-slot count across the retained
// window, 0 when nothing is retained yet.
func AverageCounters(retained []*Counter, _ *Counter) (float64, error) {
	if len(retained) == 0 {
		return 0, nil
	}
	var sum int64
	for _, c := range retained {
		sum += c.Value()
	}
	return float64(sum) / float64(len(retained)), nil
}

// AverageSamples returns the mean of every observation across the
// retained window, 0 when no observations were recorded.
func AverageSamples(retained []*Sample, _ *Sample) (float64, error) {
	var sum float64
	var count int64
	for _, s := range retained {
		sum += s.Sum()
		count += s.Count()
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}
