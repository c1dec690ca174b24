package analysis

import "time"

type stamp struct {
	ts     time.Time
	weight int
}

// Window is a trailing sum of weighted events. A window with a
// non-positive duration never evicts and keeps only the running totals.
type Window struct {
	duration time.Duration
	entries  []stamp
	head     int
	count    int
	sum      int
}

func NewWindow(duration time.Duration) *Window {
	w := &Window{duration: duration}
	if duration > 0 {
		w.entries = make([]stamp, 0, 16)
	}
	return w
}

func (w *Window) Add(ts time.Time, weight int) {
	w.count++
	w.sum += weight
	if w.duration > 0 {
		w.entries = append(w.entries, stamp{ts: ts, weight: weight})
	}
}

// Evict drops every event older than now minus the window duration.
func (w *Window) Evict(now time.Time) {
	if w.duration <= 0 {
		return
	}
	cutoff := now.Add(-w.duration)
	for w.head < len(w.entries) {
		e := w.entries[w.head]
		if !e.ts.Before(cutoff) {
			break
		}
		w.count--
		w.sum -= e.weight
		w.head++
	}
	if w.head > 0 && w.head*2 >= len(w.entries) {
		w.entries = append([]stamp{}, w.entries[w.head:]...)
		w.head = 0
	}
}

// Sum is the total weight of events in the window.
func (w *Window) Sum() int {
	return w.sum
}

func (w *Window) Empty() bool {
	return w.count == 0
}
