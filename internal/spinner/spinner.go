// Package spinner provides a time-slotted rolling aggregator. A Spinner
// owns one live slot that callers accumulate into, a bounded ring of
// expired slots, and an aggregate recomputed over that ring every time
// the live slot expires. Rotation is lazy: there is no background timer,
// a slot past its span is retired by whichever caller touches the
// spinner next.
package spinner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Clock abstracts time so tests can drive rotation deterministically.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

var (
	ErrSlotSpan      = errors.New("spinner: slot span must be positive")
	ErrSlotCount     = errors.New("spinner: slot count must be positive")
	ErrNilFactory    = errors.New("spinner: slot factory is required")
	ErrNilAggregator = errors.New("spinner: aggregator is required")
)

// Config carries the collaborators and sizing of a Spinner. SlotSpan and
// Slots default to one second and one slot; Clock and Logger default to
// the wall clock and a nop logger.
//
// NewSlot must hand out a fresh accumulator each call, independent of any
// previously created slot. The slot type itself must be safe for
// concurrent mutation: the spinner hands the live slot to many callers at
// once and never locks around their writes.
//
// Aggregate receives the retained expired slots oldest-first (the most
// recently expired slot is the last entry) plus that same most recently
// expired slot as a separate argument. It must return a usable value for
// an empty retained sequence.
type Config[S, O any] struct {
	SlotSpan  time.Duration
	Slots     int
	NewSlot   func() (*S, error)
	Aggregate func(retained []*S, latest *S) (O, error)
	Clock     Clock
	Logger    *zap.Logger
}

func (c *Config[S, O]) validate() error {
	if c.SlotSpan == 0 {
		c.SlotSpan = time.Second
	}
	if c.Slots == 0 {
		c.Slots = 1
	}
	if c.Clock == nil {
		c.Clock = wallClock{}
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.SlotSpan < 0 {
		return ErrSlotSpan
	}
	if c.Slots < 0 {
		return ErrSlotCount
	}
	if c.NewSlot == nil {
		return ErrNilFactory
	}
	if c.Aggregate == nil {
		return ErrNilAggregator
	}
	return nil
}

// Spinner rotates accumulator slots as time slots elapse. S is the slot
// type, O the aggregate type.
//
// start, current and data are atomic cells so callers that lose the
// rotation race read a consistent pre-rotation snapshot without locking.
// retained belongs to the rotation critical section only.
type Spinner[S, O any] struct {
	cfg      Config[S, O]
	start    atomic.Int64 // unix nanos of the current slot's window start
	current  atomic.Pointer[S]
	data     atomic.Pointer[O]
	rotating atomic.Bool
	retained *ring[S]
}

// New validates cfg, creates the initial slot and computes the initial
// aggregate over an empty retained sequence. Factory or aggregation
// failure here is fatal: there is no earlier state to fall back to.
func New[S, O any](cfg Config[S, O]) (*Spinner[S, O], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Spinner[S, O]{
		cfg:      cfg,
		retained: newRing[S](cfg.Slots),
	}
	first, err := cfg.NewSlot()
	if err != nil {
		return nil, fmt.Errorf("create initial slot: %w", err)
	}
	s.start.Store(cfg.Clock.Now().UnixNano())
	s.current.Store(first)

	initial, err := cfg.Aggregate(nil, first)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	s.data.Store(&initial)
	return s, nil
}

// CurrentSlot returns the live slot for callers to accumulate into,
// rotating first if the current time slot has elapsed. The returned
// error is non-nil only when this call performed a rotation and the
// aggregation function failed; the slot reference is valid either way.
func (s *Spinner[S, O]) CurrentSlot() (*S, error) {
	err := s.rotateIfElapsed()
	return s.current.Load(), err
}

// Data returns the most recently computed aggregate, rotating first if
// the current time slot has elapsed. Callers that lose the rotation race
// see the previous aggregate until the winner commits.
func (s *Spinner[S, O]) Data() (O, error) {
	err := s.rotateIfElapsed()
	return *s.data.Load(), err
}

func (s *Spinner[S, O]) elapsed() time.Duration {
	return s.cfg.Clock.Now().Sub(time.Unix(0, s.start.Load()))
}

// rotateIfElapsed admits at most one caller into rotate. Losers return
// immediately; the winner re-checks under the flag in case another
// rotation completed between the first check and the acquire.
func (s *Spinner[S, O]) rotateIfElapsed() error {
	if s.elapsed() < s.cfg.SlotSpan {
		return nil
	}
	if !s.rotating.CompareAndSwap(false, true) {
		return nil
	}
	defer s.rotating.Store(false)
	if s.elapsed() < s.cfg.SlotSpan {
		return nil
	}
	return s.rotate()
}

func (s *Spinner[S, O]) rotate() error {
	expired := s.current.Load()
	next, err := s.cfg.NewSlot()
	if err != nil {
		// Keep accumulating into the expired slot rather than leaving
		// the spinner without a live slot.
		s.cfg.Logger.Error("slot creation failed", zap.Error(err))
		next = expired
	}
	s.current.Store(next)

	elapsed := s.elapsed()
	elapsedSlots := int64(elapsed / s.cfg.SlotSpan)
	s.start.Add(elapsedSlots * int64(s.cfg.SlotSpan))

	if elapsedSlots > int64(s.cfg.Slots) {
		// The gap is wider than the whole retention window; nothing
		// retained is still relevant, the expired slot included.
		s.retained.clear()
	} else {
		for i := int64(1); i < elapsedSlots; i++ {
			idle, err := s.cfg.NewSlot()
			if err != nil {
				s.cfg.Logger.Error("slot creation failed", zap.Error(err))
				continue
			}
			s.retained.push(idle)
		}
		s.retained.push(expired)
	}

	out, err := s.cfg.Aggregate(s.retained.snapshot(), expired)
	if err != nil {
		// Window start and retention have already advanced, so the next
		// call will not re-run this rotation; the aggregate stays stale
		// until a later rotation succeeds.
		return fmt.Errorf("aggregate: %w", err)
	}
	s.data.Store(&out)
	return nil
}
