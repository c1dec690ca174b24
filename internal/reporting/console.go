package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"gonetsentry/internal/analysis"
)

// Console prints alert text, one line per alert, in bold red when the
// writer is a terminal.
type Console struct {
	out   io.Writer
	style *color.Color
}

// NewConsole writes to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{
		out:   w,
		style: color.New(color.FgRed, color.Bold),
	}
}

func (c *Console) Report(alert analysis.Alert) {
	line := fmt.Sprintf("%s [%s] %s", alert.Timestamp.Format("15:04:05"), alert.Type, alert.String())
	c.style.Fprintln(c.out, line)
}
