package spinner

// ring is a fixed-capacity buffer of expired slots. Pushing onto a full
// ring evicts the oldest entry. It is only ever touched inside the
// rotation critical section, so it carries no locking of its own.
type ring[S any] struct {
	buf  []*S
	next uint64
	size int
}

func newRing[S any](capacity int) *ring[S] {
	return &ring[S]{buf: make([]*S, capacity)}
}

func (r *ring[S]) push(slot *S) {
	r.buf[r.next%uint64(len(r.buf))] = slot
	r.next++
	if r.size < len(r.buf) {
		r.size++
	}
}

func (r *ring[S]) clear() {
	for i := range r.buf {
		r.buf[i] = nil
	}
	r.next = 0
	r.size = 0
}

// snapshot returns the retained slots oldest-first. The returned slice is
// freshly allocated so the aggregation function cannot alias ring storage.
func (r *ring[S]) snapshot() []*S {
	out := make([]*S, 0, r.size)
	start := r.next - uint64(r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(start+uint64(i))%uint64(len(r.buf))])
	}
	return out
}
