package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)
	logger.Info("quiet")
	logger.Warn("loud", "src", "10.0.0.5")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, `"msg":"loud"`) || !strings.Contains(out, `"src":"10.0.0.5"`) {
		t.Errorf("output = %s", out)
	}
}
