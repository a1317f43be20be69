package netlist

import (
	"fmt"
	"gonetlist/internal/models"
	"strings"
	"testing"
)

func fiveGroups(t *testing.T) (*Netlist, fakeSource) {
	t.Helper()
	src := fakeSource{}
	l := newList(t, src, &Config{SortMode: SortBSSID})
	for i := 1; i <= 5; i++ {
		s := fmt.Sprintf("00:00:00:00:00:0%d", i)
		src.add(l, network(mac(t, s), models.NetAP, "net"+s[len(s)-1:], int64(i)))
	}
	trigger(t, l)
	return l, src
}

func TestSelectionAndScroll(t *testing.T) {
	l, _ := fiveGroups(t)
	l.SetViewport(3, 80)

	if v := l.Viewport(); v.Selected != 0 || v.First != 0 || v.Last != 2 {
		t.Fatalf("initial viewport = %+v", v)
	}

	l.MoveSelection(10)
	if v := l.Viewport(); v.Selected != 4 || v.First != 2 || v.Last != 4 {
		t.Errorf("after MoveSelection(10) = %+v", v)
	}
	l.MoveSelection(-10)
	if v := l.Viewport(); v.Selected != 0 || v.First != 0 {
		t.Errorf("after MoveSelection(-10) = %+v", v)
	}

	l.Scroll(2)
	if v := l.Viewport(); v.First != 2 || v.Selected != 2 {
		t.Errorf("after Scroll(2) = %+v", v)
	}

	l.ScrollHorizontal(-5)
	if v := l.Viewport(); v.HPos != 0 {
		t.Errorf("HPos = %d, want 0", v.HPos)
	}
	l.ScrollHorizontal(4)
	if v := l.Viewport(); v.HPos != 4 {
		t.Errorf("HPos = %d, want 4", v.HPos)
	}

	resorts := l.Stats().Resorts
	aggs := l.Stats().Aggregations
	l.MoveSelection(1)
	l.Scroll(-1)
	if s := l.Stats(); s.Resorts != resorts || s.Aggregations != aggs {
		t.Error("viewport movement caused resort or reaggregation")
	}
}

func TestSelectionFollowsGroup(t *testing.T) {
	l, _ := fiveGroups(t)
	l.MoveSelection(1)
	g, ok := l.Selected()
	if !ok {
		t.Fatal("no selection")
	}

	if err := l.SetSortMode(SortPacketsDesc); err != nil {
		t.Fatal(err)
	}
	trigger(t, l)

	got, _ := l.Selected()
	if got != g {
		t.Errorf("selection moved from %s to %s", g.ID(), got.ID())
	}
	if v := l.Viewport(); v.Selected != 3 {
		t.Errorf("Selected = %d, want 3", v.Selected)
	}
}

func TestSelectionClampsWhenGroupRemoved(t *testing.T) {
	l, src := fiveGroups(t)
	l.MoveSelection(4)
	g, _ := l.Selected()
	addr := g.Aggregate().Addr

	if err := l.RemoveEntity(addr); err != nil {
		t.Fatal(err)
	}
	delete(src, addr)
	trigger(t, l)

	if v := l.Viewport(); v.Selected != 3 {
		t.Errorf("Selected = %d, want 3", v.Selected)
	}
}

func TestInactiveIgnoresInput(t *testing.T) {
	l, _ := fiveGroups(t)
	l.Deactivate()
	l.MoveSelection(2)
	l.ScrollHorizontal(3)
	if v := l.Viewport(); v.Selected != 0 || v.HPos != 0 {
		t.Errorf("inactive list moved: %+v", v)
	}
	l.Activate()
	l.MoveSelection(2)
	if v := l.Viewport(); v.Selected != 2 {
		t.Errorf("Selected = %d, want 2", v.Selected)
	}
}

func TestExpandedGroupOccupiesMoreRows(t *testing.T) {
	src := fakeSource{}
	l := newList(t, src, &Config{SortMode: SortBSSID})
	a := mac(t, "00:00:00:00:00:01")
	b := mac(t, "00:00:00:00:00:02")
	c := mac(t, "00:00:00:00:00:03")
	for _, addr := range []models.MAC{a, b, c} {
		src.add(l, network(addr, models.NetAP, "n"+addr.String()[16:], 1))
	}
	trigger(t, l)
	if _, err := l.CreateGroup("pair", []models.MAC{a, b}); err != nil {
		t.Fatal(err)
	}
	trigger(t, l)
	l.SetViewport(3, 0)

	if v := l.Viewport(); v.Last != 1 {
		t.Fatalf("Last = %d, want 1", v.Last)
	}
	l.ToggleExpanded()
	g, _ := l.Selected()
	if !g.Expanded() || g.Lines() != 3 {
		t.Fatalf("expanded = %v lines = %d", g.Expanded(), g.Lines())
	}
	if v := l.Viewport(); v.Last != 0 {
		t.Errorf("Last = %d, want 0", v.Last)
	}

	lines := l.VisibleLines()
	if len(lines) != 3 {
		t.Fatalf("VisibleLines = %d rows, want 3", len(lines))
	}
	if !lines[0].Summary || lines[1].Summary || !lines[2].Selected {
		t.Errorf("line flags = %+v", lines)
	}
	if !strings.Contains(lines[1].Text, "- n1") || !strings.Contains(lines[2].Text, "- n2") {
		t.Errorf("member lines = %q, %q", lines[1].Text, lines[2].Text)
	}
}

func TestVisibleLinesHorizontalOffset(t *testing.T) {
	l, _ := fiveGroups(t)
	if err := l.SetColumns([]Column{ColBSSID}); err != nil {
		t.Fatal(err)
	}
	trigger(t, l)
	l.SetViewport(2, 5)
	l.ScrollHorizontal(3)

	lines := l.VisibleLines()
	if len(lines) != 2 {
		t.Fatalf("VisibleLines = %d rows, want 2", len(lines))
	}
	if lines[0].Text != "00:00" {
		t.Errorf("line = %q, want %q", lines[0].Text, "00:00")
	}
	if got := l.VisibleHeader(); got != "ID   " {
		t.Errorf("header = %q, want %q", got, "ID   ")
	}
}
