package dash

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/f451labs/sysmon/internal/display"
	"github.com/f451labs/sysmon/internal/sample"
	"github.com/f451labs/sysmon/internal/ui"
)

// Dashboard color palette
const (
	colorBorder        = lipgloss.Color("#2A2A4A")
	colorTextPrimary   = lipgloss.Color("#FFFFFF")
	colorTextSecondary = lipgloss.Color("#B4B4D0")
	colorTextMuted     = lipgloss.Color("#6B6B8D")
	colorAccent        = lipgloss.Color("#00FFFF")
	colorOff           = lipgloss.Color("#1A1A24") // unlit LED pixel
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(colorTextPrimary).
			Bold(true).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			MarginRight(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorTextSecondary)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Padding(0, 1)
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render(m.renderMatrix()),
		cardStyle.Render(m.renderMetrics()),
	)
	b.WriteString(row)
	b.WriteString("\n")
	b.WriteString(cardStyle.Render(m.renderUploads()))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	s := m.snapshot
	title := fmt.Sprintf("SysMon %s", m.version)
	state := fmt.Sprintf("display=%s rotation=%d°", s.Mode, s.Rotation)
	if s.Blanked {
		state += " (blanked)"
	}
	if s.Sampling {
		state += "  " + ui.SymbolProgress + " testing..."
	}
	return headerStyle.Render(title) + labelStyle.Render("  "+state)
}

// renderMatrix draws the 8x8 LED preview, two characters per pixel so
// cells are roughly square in a terminal.
func (m Model) renderMatrix() string {
	var b strings.Builder
	for y := 0; y < display.Size; y++ {
		for x := 0; x < display.Size; x++ {
			p := m.frame[y][x]
			color := colorOff
			if p != (display.Pixel{}) {
				color = lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", p.R, p.G, p.B))
			}
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render("██"))
		}
		if y < display.Size-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderMetrics() string {
	s := m.snapshot
	if !s.HaveData {
		return labelStyle.Render("waiting for first speed test...")
	}

	var lines []string
	for _, metric := range sample.Metrics {
		r := s.Readings.Get(metric)
		line := fmt.Sprintf("%s %s %s  %s",
			labelStyle.Render(fmt.Sprintf("%-8s", string(metric))),
			valueStyle.Render(fmt.Sprintf("%8.2f", r.Value)),
			labelStyle.Render(fmt.Sprintf("%-4s", metric.Unit())),
			ui.RenderSparkline(s.History[metric], 24))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderUploads() string {
	s := m.snapshot
	if !s.UploadsEnabled {
		return labelStyle.Render(ui.SymbolSkipped + " uploads disabled")
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("next upload "))
	b.WriteString(m.bar.ViewAs(s.Progress))
	if !s.NextUpload.IsZero() {
		b.WriteString(labelStyle.Render("  at " + s.NextUpload.Format("15:04:05")))
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("uploaded %d  throttled %d  failed %d",
		s.Uploads, s.Throttles, s.Failures)))
	if s.LastOutcome != "" {
		b.WriteString(labelStyle.Render("  last: " + s.LastOutcome))
	}
	return b.String()
}

func (m Model) renderFooter() string {
	if m.showHelp {
		return footerStyle.Render(
			"←/→ display mode · ↑/↓ rotation · enter blank/wake · ? close help · q quit")
	}
	return footerStyle.Render("←/→/↑/↓/enter joystick · ? help · q quit")
}
