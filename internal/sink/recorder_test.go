package sink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type captureWriter struct {
	mu    sync.Mutex
	snaps []Snapshot
	done  chan struct{}
	want  int
	fail  bool
}

func (w *captureWriter) Write(_ context.Context, snap Snapshot) error {
	if w.fail {
		return errors.New("write refused")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snaps = append(w.snaps, snap)
	if len(w.snaps) == w.want {
		close(w.done)
	}
	return nil
}

func TestRecorderFlushes(t *testing.T) {
	writer := &captureWriter{done: make(chan struct{}), want: 2}
	recorder := NewRecorder(writer, 5*time.Millisecond, func(now time.Time) []Snapshot {
		return []Snapshot{{Name: "requests", Value: 4.2, TakenAt: now}}
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recorder.Run(ctx)

	select {
	case <-writer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected two flushes before timeout")
	}

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if writer.snaps[0].Name != "requests" || writer.snaps[0].Value != 4.2 {
		t.Fatalf("unexpected snapshot %+v", writer.snaps[0])
	}
}

func TestRecorderSurvivesWriteFailure(t *testing.T) {
	writer := &captureWriter{done: make(chan struct{}), want: 1, fail: true}
	flushed := make(chan struct{})
	var once sync.Once
	recorder := NewRecorder(writer, 5*time.Millisecond, func(now time.Time) []Snapshot {
		once.Do(func() { close(flushed) })
		return []Snapshot{{Name: "requests", TakenAt: now}}
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	recorder.Run(ctx)

	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatal("expected the loop to keep collecting despite write failures")
	}
}
