package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"gateway/internal/fsmodel"
)

type uiStyles struct {
	headerStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	statusStyle lipgloss.Style
	warnStyle   lipgloss.Style
	cursorStyle lipgloss.Style
	panelBorder lipgloss.Style
}

func stylesFor(m Model) uiStyles {
	if strings.ToLower(m.theme) == "light" {
		return uiStyles{
			headerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
			mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
			cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("90")).Bold(true),
			panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		}
	}
	return uiStyles{
		headerStyle: lipgloss.NewStyle().Bold(true),
		mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (m Model) View() string {
	styles := stylesFor(m)
	if m.showHelp {
		return renderHelpView(m, styles)
	}

	body := renderBody(m, styles)
	footer := renderFooter(m, styles)
	return strings.Join([]string{body, footer}, "\n")
}

func renderBody(m Model, styles uiStyles) string {
	height := panelHeight(m.height)
	leftWidth, rightWidth := splitPanels(m.width)

	local := renderPanel(m, styles, "Local", m.orch.LocalWd, m.localVisible(), m.localCursor, m.focus == paneLocal, leftWidth, height)
	remote := renderPanel(m, styles, "Remote", m.orch.RemoteWd, m.remoteVisible(), m.remoteCursor, m.focus == paneRemote, rightWidth, height)
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, local, sep, remote)
}

func renderPanel(m Model, styles uiStyles, title, wd string, entries []fsmodel.Entry, cursor int, focused bool, width, height int) string {
	contentWidth := maxInt(width-2, 10)
	header := title
	if focused {
		header = styles.statusStyle.Render(title + " ●")
	} else {
		header = styles.mutedStyle.Render(title)
	}
	headerLine := padLine(header, wd, contentWidth)

	lines := []string{headerLine}
	listHeight := maxInt(height-1, 1)
	if len(entries) == 0 {
		lines = append(lines, "(empty)")
	}
	for i := 0; i < len(entries) && i < listHeight-1; i++ {
		entry := entries[i]
		name := entry.Name
		if entry.Kind == fsmodel.KindDirectory {
			name += "/"
		}
		if entry.IsSymlink() {
			name += " -> " + entry.SymlinkTo
		}
		sizeCol := "<DIR>"
		if entry.Kind == fsmodel.KindFile {
			sizeCol = formatSize(entry.Size)
		}
		line := fmt.Sprintf("%10s  %s", sizeCol, name)
		if i == cursor && focused {
			line = styles.cursorStyle.Render(line)
		} else if i == cursor {
			line = styles.mutedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	content := strings.Join(lines, "\n")
	border := styles.panelBorder
	if focused {
		border = border.BorderForeground(lipgloss.Color("69"))
	}
	return border.Width(contentWidth).Render(content)
}

func renderFooter(m Model, styles uiStyles) string {
	statusLine := trimStatus(m.status, m.width)
	if m.transferring {
		statusLine = fmt.Sprintf("%s  %s", statusLine, progressBar(m.transferred, m.transferSize, 20))
	}
	statusStyle := styles.mutedStyle
	lower := strings.ToLower(m.status)
	if strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
		statusStyle = styles.warnStyle
	}
	statusLine = statusStyle.Render(statusLine)

	keys := "tab switch  ↑/↓ move  enter open  backspace up  t transfer  d delete  n mkdir  r rename  e edit  g goto  u size  . hidden  ? help  q quit"
	if m.confirmDelete {
		keys = "y confirm  n cancel"
	}
	if m.mode != inputNone {
		keys = "type value  enter confirm  esc cancel"
	}
	footerLine := padLine("", keys, m.width)
	return strings.Join([]string{statusLine, styles.mutedStyle.Render(footerLine)}, "\n")
}

func renderHelpView(m Model, styles uiStyles) string {
	bindings := []key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Enter, m.keys.Back, m.keys.Tab,
		m.keys.Select, m.keys.Transfer, m.keys.Delete, m.keys.Mkdir,
		m.keys.Rename, m.keys.Edit, m.keys.Goto, m.keys.DirSize,
		m.keys.Hidden, m.keys.Confirm, m.keys.Cancel, m.keys.Help, m.keys.Quit,
	}
	lines := []string{styles.headerStyle.Render("Gateway Help"), ""}
	lines = append(lines, styles.headerStyle.Render("Keys"))
	for _, binding := range bindings {
		keysLabel := strings.Join(binding.Keys(), ", ")
		lines = append(lines, fmt.Sprintf("%-18s %s", keysLabel, binding.Help().Desc))
	}
	lines = append(lines, "", "Press ? to close help")
	content := strings.Join(lines, "\n")
	width := m.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(maxInt(width-2, 10)).Render(content)
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func splitPanels(width int) (int, int) {
	if width < 20 {
		width = 80
	}
	left := width / 2
	right := width - left - 1
	return left, right
}

func panelHeight(height int) int {
	h := height - 2
	if h < 5 {
		return 5
	}
	return h
}

func formatSize(size int64) string {
	const unit = 1000
	if size < unit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit && exp < 5; n /= unit {
		div *= unit
		exp++
	}
	value := float64(size) / float64(div)
	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f%s", value, units[exp])
}

func progressBar(transferred, total int64, width int) string {
	if width <= 0 || total <= 0 {
		return ""
	}
	filledN := int(float64(width) * float64(transferred) / float64(total))
	if filledN > width {
		filledN = width
	}
	filled := strings.Repeat("█", filledN)
	gap := strings.Repeat("░", width-filledN)
	return fmt.Sprintf("[%s%s]", filled, gap)
}

func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	max := width - 4
	if max <= 0 || len(message) <= max {
		return message
	}
	return message[:max] + "..."
}
