package reporting

import (
	"gonetsentry/internal/analysis"
)

// Reporter receives alerts from the dispatch loop. Report is
// fire-and-forget and must not block for long; it runs on the dispatch
// goroutine.
type Reporter interface {
	Report(alert analysis.Alert)
}

// Func adapts a plain function to Reporter.
type Func func(alert analysis.Alert)

func (f Func) Report(alert analysis.Alert) {
	f(alert)
}

// Multi fans an alert out to every reporter in order.
type Multi []Reporter

func (m Multi) Report(alert analysis.Alert) {
	for _, r := range m {
		if r != nil {
			r.Report(alert)
		}
	}
}
