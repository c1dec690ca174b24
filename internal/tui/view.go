package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)
)

func (m AnalysisModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("gonetsentry - Monitoring: %s", m.interfaceName))

	// Traffic panel
	traffic := fmt.Sprintf("Bandwidth: %s\nPacket Rate: %.2f PPS\nPackets: %d (%s)\nQueue: %d  Errors: %d",
		formatBps(m.bps), m.pps, m.packets, formatBytes(m.bytes), m.backlog, m.errors)
	trafficBox := infoStyle.Render(traffic)

	// Protocols
	var protoStrs []string
	for i, p := range m.protocols {
		if i == 5 {
			break
		}
		protoStrs = append(protoStrs, fmt.Sprintf("%s: %d", p.Protocol, p.Count))
	}
	if len(protoStrs) == 0 {
		protoStrs = append(protoStrs, "Waiting for data...")
	}
	protoBox := infoStyle.Render("Protocols:\n" + strings.Join(protoStrs, "\n"))

	// Top talkers
	var talkerStrs []string
	for _, t := range m.topTalkers {
		talkerStrs = append(talkerStrs, fmt.Sprintf("%-16s %s", t.IP, formatBytes(int64(t.Bytes))))
	}
	if len(talkerStrs) == 0 {
		talkerStrs = append(talkerStrs, "-")
	}
	talkerBox := infoStyle.Render("Top Talkers:\n" + strings.Join(talkerStrs, "\n"))

	// Alerts by type
	var countStrs []string
	for _, a := range m.alertStats {
		countStrs = append(countStrs, alertStyle.Render(fmt.Sprintf("%s: %d", a.Type, a.Count)))
	}
	if len(countStrs) == 0 {
		countStrs = append(countStrs, "No anomalies")
	}
	countBox := infoStyle.Render("Alerts:\n" + strings.Join(countStrs, "\n"))

	alertsBox := infoStyle.Render("Recent Alerts\n" + m.table.View())

	latest := ""
	if n := len(m.alerts); n > 0 {
		latest = "\n" + alertStyle.Render(m.alerts[n-1].Message)
	}

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, trafficBox, protoBox, talkerBox, countBox)
	body := lipgloss.JoinVertical(lipgloss.Left, title, row1, alertsBox)

	return body + latest + "\nPress q to quit."
}

func formatBps(bps float64) string {
	if bps >= 1e6 {
		return fmt.Sprintf("%.2f Mbps", bps/1e6)
	}
	if bps >= 1e3 {
		return fmt.Sprintf("%.2f Kbps", bps/1e3)
	}
	return fmt.Sprintf("%.2f bps", bps)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
