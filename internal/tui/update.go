package tui

import (
	"context"
	"errors"
	"fmt"
	"gonetlist/internal/config"
	"gonetlist/internal/models"
	"gonetlist/internal/netlist"
	"gonetlist/internal/reporting"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxUpdatesPerTick bounds how many remote updates one feed tick absorbs.
const maxUpdatesPerTick = 4096

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case feedTickMsg:
		m.feed(m.now())
		return m, feedTickCmd()

	case drawTickMsg:
		m.draw()
		m.ups, m.fps = m.store.GetRates()
		return m, drawTickCmd()

	case configChangedMsg:
		m.reloadConfig()
		return m, m.waitForConfig()

	case tea.KeyMsg:
		if m.editing {
			return m.updateRename(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// feed moves everything the capture goroutines produced into the store and
// queues the changed networks. It never reaggregates.
func (m *Model) feed(now time.Time) {
	if m.coal != nil {
		for _, sum := range m.coal.Flush() {
			m.store.ApplySummary(sum)
		}
	}
drain:
	for i := 0; i < maxUpdatesPerTick; i++ {
		select {
		case u, ok := <-m.updates:
			if !ok {
				m.updates = nil
				break drain
			}
			m.store.ApplyUpdate(u)
		default:
			break drain
		}
	}

	m.store.Decay(now, m.decayAfter)
	// Queue before expiring so a network born and expired in one tick
	// leaves the dirty queue instead of failing release.
	for _, addr := range m.store.Touched() {
		m.list.MarkDirty(addr)
	}
	if n, err := m.store.Expire(now, m.expireAfter, m.list.RemoveEntity); err != nil {
		m.log.Warn("expire", "removed", n, "err", err)
	} else if n > 0 {
		m.log.Debug("expired networks", "count", n)
	}
}

func (m *Model) draw() {
	if err := m.list.UpdateTrigger(); err != nil {
		m.log.Debug("update trigger", "err", err)
	}
}

func (m *Model) resize() {
	chrome := 3 + lipgloss.Height(m.help.View(m.keys))
	if m.editing {
		chrome++
	}
	// one cell is reserved for the tag marker
	m.list.SetViewport(max(m.height-chrome, 1), max(m.width-1, 1))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.list.MoveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.list.MoveSelection(1)
	case key.Matches(msg, m.keys.PageUp):
		m.list.Scroll(-m.page())
	case key.Matches(msg, m.keys.PageDown):
		m.list.Scroll(m.page())
	case key.Matches(msg, m.keys.Left):
		m.list.ScrollHorizontal(-8)
	case key.Matches(msg, m.keys.Right):
		m.list.ScrollHorizontal(8)
	case key.Matches(msg, m.keys.Expand):
		m.list.ToggleExpanded()
	case key.Matches(msg, m.keys.Sort):
		if err := m.list.SetSortMode(m.list.SortMode().Next()); err != nil {
			m.log.Warn("sort", "err", err)
		}
		m.draw()
		m.status = "Sort: " + m.list.SortMode().String()
	case key.Matches(msg, m.keys.Info):
		m.list.SetShowExtInfo(!m.list.ShowExtInfo())
		m.draw()
	case key.Matches(msg, m.keys.Tag):
		m.toggleTag()
	case key.Matches(msg, m.keys.Group):
		m.groupTagged()
	case key.Matches(msg, m.keys.Ungroup):
		m.ungroupSelected()
	case key.Matches(msg, m.keys.Rename):
		return m.startRename()
	case key.Matches(msg, m.keys.Report):
		m.writeReport()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	}
	return m, nil
}

func (m Model) page() int {
	vp := m.list.Viewport()
	return max(vp.Last-vp.First, 1)
}

// toggleTag flips the tag on every member of the selected group.
func (m *Model) toggleTag() {
	g, ok := m.list.Selected()
	if !ok {
		return
	}
	members := g.Members()
	all := true
	for _, n := range members {
		if _, tagged := m.tagged[n.Addr]; !tagged {
			all = false
			break
		}
	}
	for _, n := range members {
		if all {
			delete(m.tagged, n.Addr)
		} else {
			m.tagged[n.Addr] = struct{}{}
		}
	}
	m.status = fmt.Sprintf("%d tagged", len(m.tagged))
}

func (m *Model) groupTagged() {
	if len(m.tagged) == 0 {
		m.status = "Nothing tagged"
		return
	}
	addrs := make([]models.MAC, 0, len(m.tagged))
	for addr := range m.tagged {
		addrs = append(addrs, addr)
	}
	id, err := m.list.CreateGroup("", addrs)
	if err != nil {
		m.log.Warn("create group", "group", id, "err", err)
	}
	clear(m.tagged)
	m.draw()
	m.saveGroups()
	if m.status == "" {
		m.status = fmt.Sprintf("Grouped %d networks", len(addrs))
	}
}

func (m *Model) ungroupSelected() {
	g, ok := m.list.Selected()
	if !ok {
		return
	}
	if err := m.list.Ungroup(g.ID()); err != nil {
		if errors.Is(err, netlist.ErrNotManualGroup) {
			m.status = "Not a manual group"
			return
		}
		m.log.Warn("ungroup", "group", g.ID(), "err", err)
	}
	m.draw()
	m.saveGroups()
}

func (m Model) startRename() (tea.Model, tea.Cmd) {
	g, ok := m.list.Selected()
	if !ok {
		return m, nil
	}
	if g.Kind() != netlist.KindManual {
		m.status = "Only manual groups can be renamed"
		return m, nil
	}
	m.editing = true
	m.renaming = g.ID()
	m.input.SetValue(g.Name())
	m.input.CursorEnd()
	m.list.Deactivate()
	m.resize()
	return m, m.input.Focus()
}

func (m Model) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if err := m.list.RenameGroup(m.renaming, m.input.Value()); err != nil {
			m.status = err.Error()
		} else {
			m.draw()
			m.saveGroups()
		}
		m.endRename()
		return m, nil
	case tea.KeyEsc:
		m.endRename()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endRename() {
	m.editing = false
	m.renaming = ""
	m.input.Blur()
	m.input.Reset()
	m.list.Activate()
	m.resize()
}

func (m *Model) saveGroups() {
	if m.groups == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.groups.Save(ctx, m.list.Manual()); err != nil {
		m.log.Error("save groups", "err", err)
		m.status = "Saving groups failed: " + err.Error()
	}
}

func (m *Model) writeReport() {
	path, err := reporting.GenerateSessionReport(m.list, m.reportDir, "html")
	if err != nil {
		m.log.Error("report", "err", err)
		m.status = "Report failed: " + err.Error()
		return
	}
	m.log.Info("wrote report", "path", path)
	m.status = "Report written to " + path
}

// reloadConfig applies the display section of a changed config file. Only
// cached text is invalidated; aggregates are kept.
func (m *Model) reloadConfig() {
	cfg, err := config.Load(m.configPath)
	if err != nil {
		m.log.Warn("reload config", "path", m.configPath, "err", err)
		m.status = "Config not reloaded: " + err.Error()
		return
	}
	d, err := cfg.ResolveDisplay()
	if err != nil {
		m.log.Warn("reload config", "path", m.configPath, "err", err)
		m.status = "Config not reloaded: " + err.Error()
		return
	}
	err = errors.Join(
		m.list.SetColumns(d.Columns),
		m.list.SetExtras(d.Extras),
		m.list.SetSortMode(d.Sort),
	)
	m.list.SetShowExtInfo(d.ShowExtInfo)
	if err != nil {
		m.log.Warn("apply config", "err", err)
	}
	m.draw()
	m.log.Info("reloaded config", "path", m.configPath)
	m.status = "Config reloaded"
}
