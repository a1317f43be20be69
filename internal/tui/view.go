package tui

import (
	"fmt"
	"gonetlist/internal/netlist"
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
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("240"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	memberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d9534f"))
)

func (m Model) View() string {
	var b strings.Builder

	title := titleStyle.Render("GoNetList - " + m.source)
	info := infoStyle.Render(fmt.Sprintf("sort: %s | groups: %d | networks: %d | %.1f upd/s %.1f frm/s",
		m.list.SortMode(), m.list.Len(), m.store.Len(), m.ups, m.fps))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, title, info))
	b.WriteByte('\n')

	b.WriteString(headerStyle.Render(" " + m.list.VisibleHeader()))
	b.WriteByte('\n')

	lines := m.list.VisibleLines()
	if len(lines) == 0 {
		b.WriteString("Waiting for data...\n")
	}
	for _, ln := range lines {
		b.WriteString(m.renderLine(ln))
		b.WriteByte('\n')
	}

	if m.editing {
		b.WriteString(m.input.View())
		b.WriteByte('\n')
	}
	b.WriteString(statusStyle.Render(m.status))
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderLine(ln netlist.Line) string {
	mark := " "
	if ln.Summary && m.isTagged(ln.Group) {
		mark = "*"
	}
	text := mark + ln.Text
	switch {
	case ln.Selected && ln.Summary:
		return selectedStyle.Render(text)
	case !ln.Summary:
		return memberStyle.Render(text)
	}
	return text
}

// isTagged reports whether any member of the group is tagged.
func (m Model) isTagged(id netlist.GroupID) bool {
	if len(m.tagged) == 0 {
		return false
	}
	g, err := m.list.Group(id)
	if err != nil {
		return false
	}
	for _, n := range g.Members() {
		if _, ok := m.tagged[n.Addr]; ok {
			return true
		}
	}
	return false
}
