package feed

import (
	"gonetlist/internal/models"
	"io"
	"log/slog"
	"strings"
	"testing"
)

const ekBeacon = `{"index":{"_index":"packets-2024-05-01","_type":"doc"}}
{"timestamp":"1714564800000","layers":{"frame_len":["180"],"frame_time_epoch":["1714564800.500000000"],"wlan_fc_type_subtype":["0x0008"],"wlan_fc_protected":["0"],"wlan_bssid":["00:11:22:33:44:55"],"wlan_sa":["00:11:22:33:44:55"],"wlan_ssid":["cafe"],"wlan_fixed_capabilities_ess":["1"],"wlan_fixed_capabilities_privacy":["1"],"wlan_wfa_ie_wpa_version":["1"],"wlan_radio_channel":["6"],"wlan_radio_signal_dbm":["-61"],"wlan_radio_data_rate":["1"],"wlan_radio_phy":["4"]}}
{"timestamp":"1714564801000","layers":{"frame_len":["60"],"wlan_fc_type_subtype":["40"],"wlan_fc_tods":["1"],"wlan_fc_protected":["True"],"wlan_bssid":["00:11:22:33:44:55"],"wlan_sa":["00:aa:bb:cc:dd:ee"]}}
{"timestamp":"1714564802000","layers":{"wlan_fc_type_subtype":["0x001d"],"wlan_bssid":["00:11:22:33:44:55"]}}
not json
`

func TestFrameFromEK(t *testing.T) {
	c := NewCoalescer()
	s, err := NewTsharkSource(TsharkConfig{File: "capture.pcapng"}, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if n := s.consume(strings.NewReader(ekBeacon)); n != 2 {
		t.Fatalf("consume fed %d frames, want 2", n)
	}

	sums := c.Flush()
	if len(sums) != 1 {
		t.Fatalf("Flush = %d summaries, want 1", len(sums))
	}
	sum := sums[0]
	if sum.SSID != "cafe" || sum.Channel != 6 || sum.SignalDBM != -61 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.LLCPackets != 1 || sum.DataPackets != 1 || sum.CryptPackets != 1 {
		t.Errorf("llc %d data %d crypt %d", sum.LLCPackets, sum.DataPackets, sum.CryptPackets)
	}
	if sum.Crypt != models.CryptWPA|models.CryptTKIP || sum.Carrier != models.Carrier80211b {
		t.Errorf("crypt %s carrier %s", sum.Crypt, sum.Carrier)
	}
	if sum.FirstTime.Unix() != 1714564800 || sum.Bytes != 240 {
		t.Errorf("first %v bytes %d", sum.FirstTime, sum.Bytes)
	}
}

func TestTsharkArgs(t *testing.T) {
	c := NewCoalescer()
	live, _ := NewTsharkSource(TsharkConfig{Interface: "wlan0mon", Filter: "type mgt"}, c, nil)
	args := strings.Join(live.args(), " ")
	if !strings.HasPrefix(args, "-i wlan0mon -I -l -n -T ek") || !strings.HasSuffix(args, "-f type mgt") {
		t.Errorf("live args = %s", args)
	}

	offline, _ := NewTsharkSource(TsharkConfig{File: "x.pcap", Filter: "wlan.fc.type == 0"}, c, nil)
	args = strings.Join(offline.args(), " ")
	if !strings.HasPrefix(args, "-r x.pcap") || !strings.HasSuffix(args, "-Y wlan.fc.type == 0") {
		t.Errorf("offline args = %s", args)
	}

	if _, err := NewTsharkSource(TsharkConfig{}, c, nil); err == nil {
		t.Error("NewTsharkSource without interface or file succeeded")
	}
}
