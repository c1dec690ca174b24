package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonetsentry/internal/analysis"
	"gonetsentry/internal/metrics"
	"gonetsentry/internal/models"
	"gonetsentry/internal/reporting"
)

// Options carries the engine's optional collaborators. Zero values are
// valid: no reporter, no stats, no metrics, no logging, no budget.
type Options struct {
	Reporter         reporting.Reporter
	Stats            *analysis.TrafficStats
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
	ProcessingBudget time.Duration
	// Clock stamps packets that carry no capture timestamp.
	Clock func() time.Time
}

// Engine owns the ingestion queue and the detector set. Run is the only
// goroutine that touches detector state.
type Engine struct {
	detectors []analysis.Detector
	queue     *Queue
	reporter  reporting.Reporter
	stats     *analysis.TrafficStats
	metrics   *metrics.Metrics
	logger    *slog.Logger
	budget    time.Duration
	clock     func() time.Time
}

func New(detectors []analysis.Detector, opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		detectors: detectors,
		queue:     NewQueue(),
		reporter:  opts.Reporter,
		stats:     opts.Stats,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		budget:    opts.ProcessingBudget,
		clock:     clock,
	}
}

// Enqueue is the capture callback. Safe to call from any goroutine.
func (e *Engine) Enqueue(pkt models.Packet) {
	if !e.queue.Enqueue(pkt) && e.logger != nil {
		e.logger.Debug("packet dropped after capture ended")
	}
}

// Close marks the end of capture; Run drains what is queued and returns.
func (e *Engine) Close() {
	e.queue.Close()
}

// QueueLen reports the ingestion backlog.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run dispatches packets until ctx is cancelled or the queue is closed and
// drained. Cancellation discards anything still queued.
func (e *Engine) Run(ctx context.Context) error {
	for {
		pkt, ok := e.queue.Dequeue(ctx)
		if !ok {
			return ctx.Err()
		}
		e.metrics.SetQueueDepth(e.queue.Len())
		e.Process(&pkt)
	}
}

// Process runs pkt through every detector in order and reports the alerts
// raised. A failing detector is logged and skipped.
func (e *Engine) Process(pkt *models.Packet) []analysis.Alert {
	start := time.Now()
	now := pkt.Timestamp
	if now.IsZero() {
		now = e.clock()
	}
	if e.stats != nil {
		e.stats.ProcessPacket(pkt)
	}

	var raised []analysis.Alert
	for _, d := range e.detectors {
		alert, err := inspect(d, pkt, now)
		if err != nil {
			e.detectorFailed(d, pkt, err)
			continue
		}
		if alert == nil {
			continue
		}
		raised = append(raised, *alert)
		e.metrics.AlertRaised(string(alert.Type))
		if e.stats != nil {
			e.stats.RecordAlert(*alert)
		}
		if e.reporter != nil {
			e.reporter.Report(*alert)
		}
	}

	elapsed := time.Since(start)
	e.metrics.ObservePacket(elapsed)
	if e.budget > 0 && elapsed > e.budget {
		e.metrics.SlowPacket()
		if e.logger != nil {
			e.logger.Warn("packet processing over budget",
				"elapsed", elapsed,
				"budget", e.budget,
				"protocol", pkt.Protocol(),
				"src", pkt.SrcIP(),
			)
		}
	}
	return raised
}

func (e *Engine) detectorFailed(d analysis.Detector, pkt *models.Packet, err error) {
	e.metrics.DetectorError(string(d.Type()))
	if e.stats != nil {
		e.stats.RecordError()
	}
	if e.logger == nil {
		return
	}
	// Truncated headers are already reported by the malformed detector.
	level := slog.LevelError
	if errors.Is(err, models.ErrTruncated) {
		level = slog.LevelDebug
	}
	e.logger.Log(context.Background(), level, "error processing packet",
		"detector", d.Type(),
		"protocol", pkt.Protocol(),
		"src", pkt.SrcIP(),
		"err", err,
	)
}

// inspect converts a detector panic into an error so one bad packet or
// detector bug cannot stop dispatch.
func inspect(d analysis.Detector, pkt *models.Packet, now time.Time) (alert *analysis.Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			alert = nil
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	return d.Inspect(pkt, now)
}
