package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

func (m AnalysisModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case TickMsg:
		m = m.refresh()
		return m, tickCmd()
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m AnalysisModel) refresh() AnalysisModel {
	m.bps, m.pps = m.stats.GetRates()
	m.packets, m.bytes, m.errors = m.stats.Totals()
	m.topTalkers = m.stats.GetTopTalkers(5)
	m.protocols = m.stats.GetProtocolStats()
	m.alertStats = m.stats.GetAlertStats()
	if m.queue != nil {
		m.backlog = m.queue.QueueLen()
	}
	if m.history != nil {
		m.alerts = m.history.Recent(10)
	}

	// Newest alert first.
	rows := make([]table.Row, 0, len(m.alerts))
	for i := len(m.alerts) - 1; i >= 0; i-- {
		a := m.alerts[i]
		rows = append(rows, table.Row{
			a.Timestamp.Format("15:04:05"),
			string(a.Type),
			a.Source,
			strconv.Itoa(a.Count),
		})
	}
	m.table.SetRows(rows)
	return m
}
