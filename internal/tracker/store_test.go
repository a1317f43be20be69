package tracker

import (
	"errors"
	"gonetlist/internal/models"
	"testing"
	"time"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func clock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestApplySummaryCreatesAndPromotes(t *testing.T) {
	now := base
	s := NewStore(clock(&now))
	addr := models.MAC{0, 1, 2, 3, 4, 5}

	s.ApplySummary(models.FrameSummary{
		Addr: addr, Saw: models.SawProbeReq, LLCPackets: 2,
		SignalDBM: -60, MinSignalDBM: -70, MaxSignalDBM: -60,
		FirstTime: base, LastTime: base.Add(time.Second),
	})
	n, ok := s.Lookup(addr)
	if !ok {
		t.Fatal("network not created")
	}
	if n.Type != models.NetProbe || n.LLCPackets != 2 || n.NewPackets != 2 {
		t.Errorf("after probe: type %s llc %d new %d", n.Type, n.LLCPackets, n.NewPackets)
	}
	if !n.Dirty {
		t.Error("new network not marked dirty")
	}

	s.ApplySummary(models.FrameSummary{
		Addr: addr, Saw: models.SawBeaconESS, SSID: "home", LLCPackets: 3, DataPackets: 4,
		Channel: 11, Crypt: models.CryptWPA, Bytes: 900,
		SignalDBM: -50, MinSignalDBM: -55, MaxSignalDBM: -50,
		FirstTime: base.Add(2 * time.Second), LastTime: base.Add(3 * time.Second),
	})
	if n.Type != models.NetAP || n.SSID != "home" || n.Channel != 11 {
		t.Errorf("after beacon: type %s ssid %q channel %d", n.Type, n.SSID, n.Channel)
	}
	if n.Packets() != 9 || n.DataSize != 900 {
		t.Errorf("packets %d size %d", n.Packets(), n.DataSize)
	}
	if n.MinSignalDBM != -70 || n.MaxSignalDBM != -50 {
		t.Errorf("signal bounds %d..%d", n.MinSignalDBM, n.MaxSignalDBM)
	}
	if !n.FirstTime.Equal(base) || !n.LastTime.Equal(base.Add(3*time.Second)) {
		t.Errorf("times %v..%v", n.FirstTime, n.LastTime)
	}

	// Type never downgrades.
	s.ApplySummary(models.FrameSummary{Addr: addr, Saw: models.SawData, DataPackets: 1, LastTime: base.Add(4 * time.Second)})
	if n.Type != models.NetAP {
		t.Errorf("type downgraded to %s", n.Type)
	}
}

func TestCloakedBeacon(t *testing.T) {
	s := NewStore(nil)
	addr := models.MAC{0, 1, 2, 3, 4, 5}
	s.ApplySummary(models.FrameSummary{Addr: addr, Saw: models.SawBeaconESS, LLCPackets: 1, FirstTime: base, LastTime: base})
	n, _ := s.Lookup(addr)
	if !n.Cloaked || n.NaturalName() != "<Hidden SSID>" {
		t.Errorf("cloaked = %v name = %q", n.Cloaked, n.NaturalName())
	}
}

func TestApplyUpdate(t *testing.T) {
	now := base
	s := NewStore(clock(&now))
	u, err := models.ParseUpdate(map[string]any{
		"bssid":       "00:11:22:33:44:55",
		"type":        "adhoc",
		"ssid":        "mesh",
		"datapackets": 42.0,
		"channel":     "6",
		"cryptset":    float64(models.CryptWEP),
		"firsttime":   float64(base.Unix()),
		"lasttime":    base.Add(time.Minute).Format(time.RFC3339),
		"rangeip":     "10.1.2.3",
		"gpsfixed":    true,
		"maxlat":      51.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	s.ApplyUpdate(u)

	n, ok := s.Lookup(u.Addr)
	if !ok {
		t.Fatal("update did not create the network")
	}
	if n.Type != models.NetAdhoc || n.SSID != "mesh" || n.DataPackets != 42 || n.Channel != 6 {
		t.Errorf("network = %+v", n)
	}
	if n.Crypt != models.CryptWEP || n.RangeIP.String() != "10.1.2.3" {
		t.Errorf("crypt %s ip %v", n.Crypt, n.RangeIP)
	}
	if !n.FirstTime.Equal(base) || !n.LastTime.Equal(base.Add(time.Minute)) {
		t.Errorf("times %v..%v", n.FirstTime, n.LastTime)
	}
	if !n.GPS.Fixed || n.GPS.MaxLat != 51.5 {
		t.Errorf("gps = %+v", n.GPS)
	}

	// Absolute semantics: a second update replaces the counter.
	u2, _ := models.ParseUpdate(map[string]any{"bssid": "00:11:22:33:44:55", "datapackets": 7})
	s.ApplyUpdate(u2)
	if n.DataPackets != 7 || n.SSID != "mesh" {
		t.Errorf("after second update: data %d ssid %q", n.DataPackets, n.SSID)
	}
}

func TestTouched(t *testing.T) {
	s := NewStore(nil)
	a := models.MAC{0, 0, 0, 0, 0, 1}
	s.ApplySummary(models.FrameSummary{Addr: a, LLCPackets: 1, FirstTime: base, LastTime: base})
	s.ApplySummary(models.FrameSummary{Addr: a, LLCPackets: 1, FirstTime: base, LastTime: base})

	if got := s.Touched(); len(got) != 1 || got[0] != a {
		t.Errorf("Touched = %v", got)
	}
	if got := s.Touched(); got != nil {
		t.Errorf("second Touched = %v", got)
	}
}

func TestDecay(t *testing.T) {
	s := NewStore(nil)
	quiet := models.MAC{0, 0, 0, 0, 0, 1}
	busy := models.MAC{0, 0, 0, 0, 0, 2}
	s.ApplySummary(models.FrameSummary{Addr: quiet, LLCPackets: 3, FirstTime: base, LastTime: base})
	s.ApplySummary(models.FrameSummary{Addr: busy, LLCPackets: 3, FirstTime: base, LastTime: base.Add(9 * time.Second)})
	s.Touched()

	if n := s.Decay(base.Add(10*time.Second), 5*time.Second); n != 1 {
		t.Fatalf("Decay changed %d, want 1", n)
	}
	q, _ := s.Lookup(quiet)
	b, _ := s.Lookup(busy)
	if q.NewPackets != 0 || b.NewPackets != 3 {
		t.Errorf("new packets quiet %d busy %d", q.NewPackets, b.NewPackets)
	}
	if got := s.Touched(); len(got) != 1 || got[0] != quiet {
		t.Errorf("Touched after decay = %v", got)
	}
}

func TestExpire(t *testing.T) {
	s := NewStore(nil)
	old := models.MAC{0, 0, 0, 0, 0, 1}
	stuck := models.MAC{0, 0, 0, 0, 0, 2}
	fresh := models.MAC{0, 0, 0, 0, 0, 3}
	for _, addr := range []models.MAC{old, stuck} {
		s.ApplySummary(models.FrameSummary{Addr: addr, LLCPackets: 1, FirstTime: base, LastTime: base})
	}
	s.ApplySummary(models.FrameSummary{Addr: fresh, LLCPackets: 1, FirstTime: base, LastTime: base.Add(time.Hour)})

	var released []models.MAC
	errStuck := errors.New("still referenced")
	removed, err := s.Expire(base.Add(time.Hour), 10*time.Minute, func(addr models.MAC) error {
		if addr == stuck {
			return errStuck
		}
		released = append(released, addr)
		return nil
	})
	if removed != 1 || !errors.Is(err, errStuck) {
		t.Fatalf("Expire = %d, %v", removed, err)
	}
	if len(released) != 1 || released[0] != old {
		t.Errorf("released = %v", released)
	}
	if _, ok := s.Lookup(old); ok {
		t.Error("expired network still present")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	if n, _ := s.Expire(base.Add(time.Hour), 0, nil); n != 0 {
		t.Errorf("Expire with zero maxAge removed %d", n)
	}
}

func TestGetRates(t *testing.T) {
	now := base
	s := NewStore(clock(&now))
	s.ApplySummary(models.FrameSummary{Addr: models.MAC{1}, LLCPackets: 10, FirstTime: base, LastTime: base})
	u, _ := models.ParseUpdate(map[string]any{"bssid": "00:00:00:00:00:02"})
	s.ApplyUpdate(u)
	s.ApplyUpdate(u)

	now = base.Add(2 * time.Second)
	ups, fps := s.GetRates()
	if ups != 1 || fps != 5 {
		t.Errorf("GetRates = %v, %v; want 1, 5", ups, fps)
	}
	now = now.Add(time.Second)
	if ups, fps := s.GetRates(); ups != 0 || fps != 0 {
		t.Errorf("second GetRates = %v, %v", ups, fps)
	}
}

func TestCaptureClockFollowsFrames(t *testing.T) {
	wall := base.Add(time.Hour)
	s := NewStore(clock(&wall))
	capture := s.CaptureClock()
	if got := capture(); !got.Equal(wall) {
		t.Fatalf("empty store clock = %v, want %v", got, wall)
	}

	s.ApplySummary(models.FrameSummary{Addr: models.MAC{1}, LLCPackets: 1, FirstTime: base, LastTime: base})
	s.ApplySummary(models.FrameSummary{Addr: models.MAC{2}, LLCPackets: 1, FirstTime: base, LastTime: base.Add(-time.Minute)})
	if got := capture(); !got.Equal(base) {
		t.Errorf("capture clock = %v, want %v", got, base)
	}
	if n, err := s.Expire(capture(), 10*time.Minute, nil); n != 0 || err != nil {
		t.Errorf("Expire against capture clock = %d, %v", n, err)
	}

	s.ApplySummary(models.FrameSummary{Addr: models.MAC{1}, LLCPackets: 1, LastTime: base.Add(20 * time.Minute)})
	if got := s.Latest(); !got.Equal(base.Add(20 * time.Minute)) {
		t.Errorf("Latest = %v", got)
	}
	if n, _ := s.Expire(capture(), 10*time.Minute, nil); n != 1 || s.Len() != 1 {
		t.Errorf("Expire = %d, Len = %d", n, s.Len())
	}
}
