package reporting

import (
	"log/slog"

	"gonetsentry/internal/analysis"
)

// Log writes each alert as a structured warn record.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Report(alert analysis.Alert) {
	if l.logger == nil {
		return
	}
	l.logger.Warn("anomaly detected",
		"type", alert.Type,
		"source", alert.Source,
		"count", alert.Count,
		"message", alert.Message,
	)
}
