package reporting

import (
	"sync"

	"gonetsentry/internal/analysis"
)

// History keeps the most recent alerts for the dashboard.
type History struct {
	mu     sync.Mutex
	alerts []analysis.Alert
	limit  int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 20
	}
	return &History{limit: limit}
}

func (h *History) Report(alert analysis.Alert) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alerts = append(h.alerts, alert)
	if len(h.alerts) > h.limit {
		h.alerts = h.alerts[len(h.alerts)-h.limit:]
	}
}

// Recent returns up to limit alerts, newest last.
func (h *History) Recent(limit int) []analysis.Alert {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := 0
	if limit > 0 && len(h.alerts) > limit {
		start = len(h.alerts) - limit
	}
	result := make([]analysis.Alert, len(h.alerts)-start)
	copy(result, h.alerts[start:])
	return result
}
