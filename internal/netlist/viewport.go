package netlist

import "github.com/charmbracelet/x/ansi"

// Viewport is the scroll window over the display list. First, Last and Selected
// index groups, not rows.
type Viewport struct {
	First    int
	Last     int
	Selected int
	Rows     int
	Cols     int
	HPos     int
}

// Line is one visible row.
type Line struct {
	Text     string
	Group    GroupID
	Summary  bool // first row of its group
	Selected bool
}

// Viewport returns the current window.
func (l *Netlist) Viewport() Viewport {
	return l.vp
}

// SetViewport sets the visible extent in rows and cells.
func (l *Netlist) SetViewport(rows, cols int) {
	l.vp.Rows = max(rows, 0)
	l.vp.Cols = max(cols, 0)
	l.fit()
}

func (l *Netlist) Activate()    { l.active = true }
func (l *Netlist) Deactivate()  { l.active = false }
func (l *Netlist) Active() bool { return l.active }

// Selected returns the selected group, if any.
func (l *Netlist) Selected() (*Group, bool) {
	if l.vp.Selected < 0 || l.vp.Selected >= len(l.display) {
		return nil, false
	}
	return l.display[l.vp.Selected], true
}

// MoveSelection moves the selection by delta groups, clamped to the list.
func (l *Netlist) MoveSelection(delta int) {
	if !l.active || len(l.display) == 0 {
		return
	}
	l.selectIndex(clamp(l.vp.Selected+delta, 0, len(l.display)-1))
	l.fit()
}

// Scroll moves the window by delta groups and keeps the selection inside it.
func (l *Netlist) Scroll(delta int) {
	if !l.active || len(l.display) == 0 {
		return
	}
	l.vp.First = clamp(l.vp.First+delta, 0, len(l.display)-1)
	l.vp.Last = l.lastFrom(l.vp.First)
	switch {
	case l.vp.Selected < l.vp.First:
		l.selectIndex(l.vp.First)
	case l.vp.Selected > l.vp.Last:
		l.selectIndex(l.vp.Last)
	}
}

// ScrollHorizontal shifts the text offset; it never goes below zero.
func (l *Netlist) ScrollHorizontal(delta int) {
	if !l.active {
		return
	}
	l.vp.HPos = max(l.vp.HPos+delta, 0)
}

// ToggleExpanded shows or hides the member lines of the selected group.
func (l *Netlist) ToggleExpanded() {
	g, ok := l.Selected()
	if !l.active || !ok {
		return
	}
	g.expanded = !g.expanded
	l.refresh(g)
	l.fit()
}

// VisibleLines renders the window, horizontal offset applied.
func (l *Netlist) VisibleLines() []Line {
	if len(l.display) == 0 {
		return nil
	}
	var out []Line
	for i := l.vp.First; i <= l.vp.Last && i < len(l.display); i++ {
		g := l.display[i]
		for j, text := range l.groupLines(g) {
			if l.vp.Rows > 0 && len(out) >= l.vp.Rows {
				return out
			}
			out = append(out, Line{
				Text:     l.hcut(text),
				Group:    g.id,
				Summary:  j == 0,
				Selected: i == l.vp.Selected,
			})
		}
	}
	return out
}

// VisibleHeader is the column header with the horizontal offset applied.
func (l *Netlist) VisibleHeader() string {
	return l.hcut(l.Header())
}

func (l *Netlist) hcut(s string) string {
	if l.vp.HPos == 0 && l.vp.Cols == 0 {
		return s
	}
	right := ansi.StringWidth(s)
	if l.vp.Cols > 0 {
		right = l.vp.HPos + l.vp.Cols
	}
	return ansi.Cut(s, l.vp.HPos, right)
}

func (l *Netlist) selectIndex(i int) {
	l.vp.Selected = i
	l.sel = l.display[i]
}

// reselect finds the previously selected group after a resort, falling back to
// the nearest valid index when it is gone.
func (l *Netlist) reselect() {
	if len(l.display) == 0 {
		l.vp.Selected = -1
		l.sel = nil
		return
	}
	if l.sel != nil {
		for i, g := range l.display {
			if g == l.sel {
				l.vp.Selected = i
				return
			}
		}
	}
	l.selectIndex(clamp(l.vp.Selected, 0, len(l.display)-1))
}

// fit keeps First..Last within the list and the selection inside the window.
func (l *Netlist) fit() {
	n := len(l.display)
	if n == 0 {
		l.vp.First, l.vp.Last, l.vp.Selected = 0, -1, -1
		l.sel = nil
		return
	}
	if l.vp.Selected < 0 || l.vp.Selected >= n {
		l.selectIndex(clamp(l.vp.Selected, 0, n-1))
	}
	l.vp.First = clamp(l.vp.First, 0, n-1)
	if l.vp.Selected < l.vp.First {
		l.vp.First = l.vp.Selected
	}
	l.vp.Last = l.lastFrom(l.vp.First)
	for l.vp.Selected > l.vp.Last && l.vp.First < l.vp.Selected {
		l.vp.First++
		l.vp.Last = l.lastFrom(l.vp.First)
	}
}

// lastFrom is the last group index that fits when the window starts at first.
// The first group is always shown, even when taller than the window.
func (l *Netlist) lastFrom(first int) int {
	n := len(l.display)
	if l.vp.Rows <= 0 {
		return n - 1
	}
	used, last := 0, first
	for i := first; i < n; i++ {
		h := l.display[i].nlines
		if i > first && used+h > l.vp.Rows {
			break
		}
		used += h
		last = i
	}
	return last
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
