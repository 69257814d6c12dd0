package spinner

import "testing"

func values(slots []*int64) []int64 {
	out := make([]int64, 0, len(slots))
	for _, s := range slots {
		out = append(out, *s)
	}
	return out
}

func push(r *ring[int64], v int64) {
	s := v
	r.push(&s)
}

func TestRingPushKeepsNewest(t *testing.T) {
	r := newRing[int64](3)
	for v := int64(1); v <= 5; v++ {
		push(r, v)
	}
	got := values(r.snapshot())
	want := []int64{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRingSnapshotBeforeFull(t *testing.T) {
	r := newRing[int64](4)
	push(r, 7)
	push(r, 8)
	got := values(r.snapshot())
	if len(got) != 2 || got[0] != 7 || got[1] != 8 {
		t.Fatalf("expected [7 8], got %v", got)
	}
}

func TestRingClear(t *testing.T) {
	r := newRing[int64](2)
	push(r, 1)
	push(r, 2)
	r.clear()
	if got := r.snapshot(); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %d entries", len(got))
	}
	push(r, 3)
	got := values(r.snapshot())
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected [3], got %v", got)
	}
}
