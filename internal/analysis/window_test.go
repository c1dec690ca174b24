package analysis

import (
	"testing"
	"time"
)

func TestWindowEvicts(t *testing.T) {
	w := NewWindow(time.Minute)
	w.Add(t0, 10)
	w.Add(t0.Add(30*time.Second), 5)
	w.Add(t0.Add(50*time.Second), 1)

	w.Evict(t0.Add(time.Minute))
	if w.Sum() != 16 {
		t.Fatalf("sum = %d, want 16", w.Sum())
	}
	w.Evict(t0.Add(61 * time.Second))
	if w.Sum() != 6 {
		t.Fatalf("sum = %d, want 6", w.Sum())
	}
	w.Evict(t0.Add(10 * time.Minute))
	if !w.Empty() || w.Sum() != 0 {
		t.Fatalf("window not empty: sum=%d", w.Sum())
	}

	w.Add(t0.Add(11*time.Minute), 2)
	if w.Empty() || w.Sum() != 2 {
		t.Errorf("reuse after eviction: sum=%d", w.Sum())
	}
}

func TestWindowZeroWeightIsNotEmpty(t *testing.T) {
	w := NewWindow(time.Minute)
	w.Add(t0, 0)
	if w.Empty() {
		t.Error("window with a zero-weight event reported empty")
	}
}

func TestWindowWithoutDurationNeverEvicts(t *testing.T) {
	w := NewWindow(0)
	for i := 0; i < 100; i++ {
		w.Add(t0, 1)
	}
	w.Evict(t0.Add(24 * time.Hour))
	if w.Sum() != 100 {
		t.Fatalf("sum = %d, want 100", w.Sum())
	}
}

func TestSpan(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "since last alert",
		time.Minute:             "in the last 1m",
		time.Hour:               "in the last 1h",
		90 * time.Second:        "in the last 1m30s",
		1500 * time.Millisecond: "in the last 1.5s",
	}
	for d, want := range cases {
		if got := span(d); got != want {
			t.Errorf("span(%v) = %q, want %q", d, got, want)
		}
	}
}
