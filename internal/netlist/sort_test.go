package netlist

import (
	"gonetlist/internal/models"
	"reflect"
	"testing"
	"time"
)

func TestParseSortMode(t *testing.T) {
	for m := SortAutofit; m < sortModeCount; m++ {
		got, err := ParseSortMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseSortMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseSortMode("loudest"); err == nil {
		t.Error("ParseSortMode accepted an unknown mode")
	}
	if got := SortPacketsDesc.Next(); got != SortAutofit {
		t.Errorf("Next wraps to %s, want autofit", got)
	}
	if got := SortAutofit.Next(); got != SortRecent {
		t.Errorf("Next = %s, want recent", got)
	}
}

func TestAutofitOrder(t *testing.T) {
	now := base.Add(time.Minute)
	src := fakeSource{}
	l := newList(t, src, &Config{Now: func() time.Time { return now }})

	add := func(s string, lastAgo time.Duration, newPackets, packets int64) {
		n := network(mac(t, s), models.NetAP, s, packets)
		n.LastTime = now.Add(-lastAgo)
		n.NewPackets = newPackets
		src.add(l, n)
	}
	add("00:00:00:00:00:01", time.Second, 5, 10)     // active
	add("00:00:00:00:00:02", time.Second, 0, 100)    // decaying
	add("00:00:00:00:00:03", time.Minute, 0, 1000)   // idle
	add("00:00:00:00:00:04", 2*time.Second, 1, 50)   // active, more packets
	add("00:00:00:00:00:05", 30*time.Second, 0, 5)   // idle, more recent
	add("00:00:00:00:00:06", 8*time.Second, 0, 100)  // decaying, ties with 02
	trigger(t, l)

	want := []GroupID{
		"00:00:00:00:00:04",
		"00:00:00:00:00:01",
		"00:00:00:00:00:02",
		"00:00:00:00:00:06",
		"00:00:00:00:00:05",
		"00:00:00:00:00:03",
	}
	if got := displayIDs(l); !reflect.DeepEqual(got, want) {
		t.Errorf("autofit order = %v, want %v", got, want)
	}
}

func TestSortModes(t *testing.T) {
	src := fakeSource{}
	l := newList(t, src, nil)

	a := network(mac(t, "00:00:00:00:00:0a"), models.NetAP, "zulu", 30)
	a.Channel, a.FirstTime, a.LastTime = 11, base, base.Add(5*time.Second)
	b := network(mac(t, "00:00:00:00:00:0b"), models.NetAdhoc, "alpha", 10)
	b.Channel, b.FirstTime, b.LastTime = 1, base.Add(time.Second), base.Add(9*time.Second)
	c := network(mac(t, "00:00:00:00:00:0c"), models.NetTurbocell, "mike", 20)
	c.Channel, c.FirstTime, c.LastTime = 6, base.Add(2*time.Second), base.Add(7*time.Second)
	for _, n := range []*models.Network{a, b, c} {
		src.add(l, n)
	}

	ida, idc := GroupID(a.Addr.String()), GroupID(c.Addr.String())
	tests := []struct {
		mode SortMode
		want []GroupID
	}{
		{SortRecent, []GroupID{AdhocGroupID, idc, ida}},
		{SortType, []GroupID{ida, AdhocGroupID, idc}},
		{SortChannel, []GroupID{AdhocGroupID, idc, ida}},
		{SortFirst, []GroupID{ida, AdhocGroupID, idc}},
		{SortFirstDesc, []GroupID{idc, AdhocGroupID, ida}},
		{SortLast, []GroupID{ida, idc, AdhocGroupID}},
		{SortLastDesc, []GroupID{AdhocGroupID, idc, ida}},
		{SortBSSID, []GroupID{ida, AdhocGroupID, idc}},
		{SortSSID, []GroupID{AdhocGroupID, idc, ida}},
		{SortPackets, []GroupID{AdhocGroupID, idc, ida}},
		{SortPacketsDesc, []GroupID{ida, idc, AdhocGroupID}},
	}

	for _, tc := range tests {
		if err := l.SetSortMode(tc.mode); err != nil {
			t.Fatal(err)
		}
		trigger(t, l)
		if got := displayIDs(l); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: order = %v, want %v", tc.mode, got, tc.want)
		}
	}
}

func TestSortChangeKeepsCachedText(t *testing.T) {
	src := fakeSource{}
	l := newList(t, src, nil)
	src.add(l, network(mac(t, "00:00:00:00:00:01"), models.NetAP, "north", 5))
	src.add(l, network(mac(t, "00:00:00:00:00:02"), models.NetAP, "south", 9))
	trigger(t, l)

	s0 := l.Stats()
	if err := l.SetSortMode(SortPacketsDesc); err != nil {
		t.Fatal(err)
	}
	trigger(t, l)
	s1 := l.Stats()

	if s1.Resorts != s0.Resorts+1 {
		t.Errorf("Resorts = %d, want %d", s1.Resorts, s0.Resorts+1)
	}
	if s1.Renders != s0.Renders {
		t.Errorf("Renders = %d, want %d", s1.Renders, s0.Renders)
	}
	want := []GroupID{"00:00:00:00:00:02", "00:00:00:00:00:01"}
	if got := displayIDs(l); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestAutofitTierHeldUntilResort(t *testing.T) {
	now := base.Add(time.Minute)
	src := fakeSource{}
	l := newList(t, src, &Config{Now: func() time.Time { return now }})

	active := network(mac(t, "00:00:00:00:00:01"), models.NetAP, "busy", 10)
	active.LastTime, active.NewPackets = now.Add(-time.Second), 1
	quiet := network(mac(t, "00:00:00:00:00:02"), models.NetAP, "quiet", 100)
	quiet.LastTime = now
	src.add(l, active)
	src.add(l, quiet)
	trigger(t, l)

	first := []GroupID{"00:00:00:00:00:01", "00:00:00:00:00:02"}
	if got := displayIDs(l); !reflect.DeepEqual(got, first) {
		t.Fatalf("autofit order = %v, want %v", got, first)
	}

	// Both lapse to idle; nothing changed, so the old order stands.
	now = now.Add(20 * time.Second)
	trigger(t, l)
	if got := displayIDs(l); !reflect.DeepEqual(got, first) {
		t.Errorf("order without resort = %v, want %v", got, first)
	}

	// A mode round trip forces the resort and idle groups fall back to recency.
	for _, m := range []SortMode{SortBSSID, SortAutofit} {
		if err := l.SetSortMode(m); err != nil {
			t.Fatal(err)
		}
	}
	trigger(t, l)
	want := []GroupID{"00:00:00:00:00:02", "00:00:00:00:00:01"}
	if got := displayIDs(l); !reflect.DeepEqual(got, want) {
		t.Errorf("order after resort = %v, want %v", got, want)
	}
}
