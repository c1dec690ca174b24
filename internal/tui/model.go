package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gonetsentry/internal/analysis"
	"gonetsentry/internal/reporting"
)

// TickMsg drives the periodic refresh.
type TickMsg time.Time

// QueueLener reports the ingestion backlog.
type QueueLener interface {
	QueueLen() int
}

type AnalysisModel struct {
	stats         *analysis.TrafficStats
	history       *reporting.History
	queue         QueueLener
	interfaceName string

	bps        float64
	pps        float64
	packets    int64
	bytes      int64
	errors     int64
	backlog    int
	topTalkers []analysis.IPStat
	protocols  []analysis.ProtocolStat
	alertStats []analysis.AlertStat
	alerts     []analysis.Alert
	table      table.Model
}

func NewAnalysisModel(stats *analysis.TrafficStats, history *reporting.History, queue QueueLener, iface string) AnalysisModel {
	columns := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "Type", Width: 20},
		{Title: "Source", Width: 20},
		{Title: "Count", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return AnalysisModel{
		stats:         stats,
		history:       history,
		queue:         queue,
		interfaceName: iface,
		table:         t,
	}
}

func (m AnalysisModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
