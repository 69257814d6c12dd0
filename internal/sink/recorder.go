package sink

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Writer persists a snapshot. Postgres implements it; tests swap in a
// capture.
type Writer interface {
	Write(ctx context.Context, snap Snapshot) error
}

// Recorder periodically collects snapshots and hands them to a Writer.
// A failed write is logged and dropped; the loop keeps running.
type Recorder struct {
	writer   Writer
	interval time.Duration
	collect  func(now time.Time) []Snapshot
	logger   *zap.Logger
}

func NewRecorder(writer Writer, interval time.Duration, collect func(time.Time) []Snapshot, logger *zap.Logger) *Recorder {
	return &Recorder{
		writer:   writer,
		interval: interval,
		collect:  collect,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, flushing once per interval.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, snap := range r.collect(now) {
				if err := r.writer.Write(ctx, snap); err != nil {
					r.logger.Error("snapshot write failed",
						zap.String("name", snap.Name), zap.Error(err))
				}
			}
		}
	}
}
