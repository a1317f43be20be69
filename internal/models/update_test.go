package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseUpdate(t *testing.T) {
	evt := map[string]any{
		"bssid":       "aa:aa:aa:aa:aa:aa",
		"type":        "ap",
		"ssid":        "Office",
		"channel":     float64(6),
		"llcpackets":  "12",
		"lasttime":    float64(1700000000),
		"firsttime":   "2023-11-14T22:00:00Z",
		"gpsfixed":    true,
		"x_unrelated": "kept",
	}

	u, err := ParseUpdate(evt)
	if err != nil {
		t.Fatalf("ParseUpdate: %v", err)
	}
	if u.Addr.String() != "AA:AA:AA:AA:AA:AA" {
		t.Errorf("Addr = %s", u.Addr)
	}
	if ch, ok := u.Int64("channel"); !ok || ch != 6 {
		t.Errorf("channel = %d, %v", ch, ok)
	}
	if llc, ok := u.Int64("llcpackets"); !ok || llc != 12 {
		t.Errorf("llcpackets = %d, %v", llc, ok)
	}
	if lt, ok := u.Time("lasttime"); !ok || !lt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("lasttime = %v, %v", lt, ok)
	}
	if ft, ok := u.Time("firsttime"); !ok || ft.Year() != 2023 {
		t.Errorf("firsttime = %v, %v", ft, ok)
	}
	if ssid, ok := u.String("ssid"); !ok || ssid != "Office" {
		t.Errorf("ssid = %q", ssid)
	}
	if fixed, ok := u.Bool("gpsfixed"); !ok || !fixed {
		t.Error("gpsfixed not parsed")
	}
	if _, ok := u.Fields["bssid"]; ok {
		t.Error("bssid should not be kept as a field")
	}
	if _, ok := u.Int64("signal_dbm"); ok {
		t.Error("missing field reported present")
	}
}

func TestParseUpdateErrors(t *testing.T) {
	if _, err := ParseUpdate(map[string]any{"ssid": "x"}); !errors.Is(err, ErrMissingAddress) {
		t.Errorf("expected ErrMissingAddress, got %v", err)
	}
	if _, err := ParseUpdate(map[string]any{"bssid": "zz"}); err == nil {
		t.Error("expected error for bad bssid")
	}
	if _, err := ParseUpdate(map[string]any{"bssid": "aa:aa:aa:aa:aa:aa", "channel": "six"}); err == nil {
		t.Error("expected error for non-numeric channel")
	}
	if _, err := ParseUpdate(map[string]any{"bssid": "aa:aa:aa:aa:aa:aa", "ssid": 5}); err == nil {
		t.Error("expected error for numeric ssid")
	}
}

func TestFrameSummaryAdd(t *testing.T) {
	t0 := time.Unix(1000, 0)
	var s FrameSummary
	s.Add(Frame{Timestamp: t0.Add(time.Second), Kind: FrameBeacon, ESS: true, SSID: "Office", Channel: 6, SignalDBM: -60, Length: 100})
	s.Add(Frame{Timestamp: t0, Kind: FrameData, Protected: true, SignalDBM: -40, Length: 50, Retry: true})
	s.Add(Frame{Timestamp: t0.Add(2 * time.Second), Kind: FrameData, Length: 10, Rate: 54})

	if s.LLCPackets != 1 || s.DataPackets != 2 || s.CryptPackets != 1 {
		t.Errorf("counts llc=%d data=%d crypt=%d", s.LLCPackets, s.DataPackets, s.CryptPackets)
	}
	if s.Saw&SawBeaconESS == 0 || s.Saw&SawData == 0 {
		t.Errorf("Saw = %b", s.Saw)
	}
	if s.SSID != "Office" || s.Channel != 6 || s.Bytes != 160 || s.MaxRate != 54 || s.Retries != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.MinSignalDBM != -60 || s.MaxSignalDBM != -40 {
		t.Errorf("signal bounds %d..%d", s.MinSignalDBM, s.MaxSignalDBM)
	}
	if !s.FirstTime.Equal(t0) || !s.LastTime.Equal(t0.Add(2*time.Second)) {
		t.Errorf("times %v..%v", s.FirstTime, s.LastTime)
	}
}
