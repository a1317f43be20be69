package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gonetlist/internal/models"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ekPacket is one line of tshark -T ek output.
type ekPacket struct {
	Timestamp string   `json:"timestamp"`
	Layers    ekLayers `json:"layers"`
}

// ekLayers holds the requested fields. With -e and -T ek tshark flattens field
// names, replacing dots with underscores.
type ekLayers struct {
	FrameLen    []string `json:"frame_len,omitempty"`
	FrameTime   []string `json:"frame_time_epoch,omitempty"`
	TypeSubtype []string `json:"wlan_fc_type_subtype,omitempty"`
	ToDS        []string `json:"wlan_fc_tods,omitempty"`
	FromDS      []string `json:"wlan_fc_fromds,omitempty"`
	Protected   []string `json:"wlan_fc_protected,omitempty"`
	Retry       []string `json:"wlan_fc_retry,omitempty"`
	MoreFrag    []string `json:"wlan_fc_frag,omitempty"`
	BSSID       []string `json:"wlan_bssid,omitempty"`
	SA          []string `json:"wlan_sa,omitempty"`
	SSID        []string `json:"wlan_ssid,omitempty"`
	ESS         []string `json:"wlan_fixed_capabilities_ess,omitempty"`
	IBSS        []string `json:"wlan_fixed_capabilities_ibss,omitempty"`
	Privacy     []string `json:"wlan_fixed_capabilities_privacy,omitempty"`
	RSNVersion  []string `json:"wlan_rsn_version,omitempty"`
	WPAVersion  []string `json:"wlan_wfa_ie_wpa_version,omitempty"`
	Channel     []string `json:"wlan_radio_channel,omitempty"`
	Signal      []string `json:"wlan_radio_signal_dbm,omitempty"`
	Noise       []string `json:"wlan_radio_noise_dbm,omitempty"`
	DataRate    []string `json:"wlan_radio_data_rate,omitempty"`
	PHY         []string `json:"wlan_radio_phy,omitempty"`
}

var tsharkFields = []string{
	"frame.len", "frame.time_epoch",
	"wlan.fc.type_subtype", "wlan.fc.tods", "wlan.fc.fromds",
	"wlan.fc.protected", "wlan.fc.retry", "wlan.fc.frag",
	"wlan.bssid", "wlan.sa", "wlan.ssid",
	"wlan.fixed.capabilities.ess", "wlan.fixed.capabilities.ibss", "wlan.fixed.capabilities.privacy",
	"wlan.rsn.version", "wlan.wfa.ie.wpa.version",
	"wlan_radio.channel", "wlan_radio.signal_dbm", "wlan_radio.noise_dbm",
	"wlan_radio.data_rate", "wlan_radio.phy",
}

// TsharkConfig controls a tshark capture.
type TsharkConfig struct {
	Interface string
	File      string
	Filter    string
	// Binary defaults to "tshark" on $PATH.
	Binary string
}

// TsharkSource runs tshark and feeds the decoded frames to a Coalescer.
type TsharkSource struct {
	cfg TsharkConfig
	out *Coalescer
	log *slog.Logger
}

// NewTsharkSource returns a source writing to out.
func NewTsharkSource(cfg TsharkConfig, out *Coalescer, log *slog.Logger) (*TsharkSource, error) {
	if cfg.Interface == "" && cfg.File == "" {
		return nil, errors.New("tshark: interface or file required")
	}
	if out == nil {
		return nil, errors.New("tshark: nil coalescer")
	}
	if cfg.Binary == "" {
		cfg.Binary = "tshark"
	}
	if log == nil {
		log = slog.Default()
	}
	return &TsharkSource{cfg: cfg, out: out, log: log}, nil
}

func (s *TsharkSource) args() []string {
	// -l: flush stdout after each packet
	// -n: disable name resolution
	// -T ek: one JSON document per packet
	args := []string{"-l", "-n", "-T", "ek"}
	for _, f := range tsharkFields {
		args = append(args, "-e", f)
	}
	if s.cfg.File != "" {
		args = append([]string{"-r", s.cfg.File}, args...)
	} else {
		args = append([]string{"-i", s.cfg.Interface, "-I"}, args...)
	}
	if s.cfg.Filter != "" {
		if s.cfg.File != "" {
			args = append(args, "-Y", s.cfg.Filter)
		} else {
			args = append(args, "-f", s.cfg.Filter)
		}
	}
	return args
}

// Run starts tshark and blocks until it exits or ctx is done.
func (s *TsharkSource) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.cfg.Binary, s.args()...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start tshark: %w", err)
	}
	s.log.Info("tshark capture started", "interface", s.cfg.Interface, "file", s.cfg.File)

	go s.logStderr(stderr)
	n := s.consume(stdout)

	err = cmd.Wait()
	s.log.Info("tshark capture stopped", "frames", n)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("tshark: %w", err)
	}
	return nil
}

func (s *TsharkSource) logStderr(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			s.log.Debug("tshark", "stderr", line)
		}
	}
}

// consume reads ek lines until EOF and returns the number of frames fed.
func (s *TsharkSource) consume(r io.Reader) int {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		line := sc.Bytes()
		// -T ek interleaves index lines with packet lines
		if !strings.Contains(string(line), `"layers"`) {
			continue
		}
		var pkt ekPacket
		if err := json.Unmarshal(line, &pkt); err != nil {
			continue
		}
		if f, ok := frameFromEK(pkt); ok {
			s.out.Observe(f)
			n++
		}
	}
	return n
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func flag(v []string) bool {
	s := first(v)
	return s == "1" || strings.EqualFold(s, "true")
}

func atoi(v []string) int {
	n, err := strconv.ParseFloat(first(v), 64)
	if err != nil {
		return 0
	}
	return int(math.Round(n))
}

func macField(v []string) models.MAC {
	m, err := models.ParseMAC(first(v))
	if err != nil {
		return models.MAC{}
	}
	return m
}

// frameFromEK converts one tshark packet to a Frame.
func frameFromEK(pkt ekPacket) (models.Frame, bool) {
	l := pkt.Layers
	st, err := strconv.ParseInt(first(l.TypeSubtype), 0, 64)
	if err != nil {
		return models.Frame{}, false
	}

	f := models.Frame{
		Length:    atoi(l.FrameLen),
		Protected: flag(l.Protected),
		Retry:     flag(l.Retry),
		Fragment:  flag(l.MoreFrag),
		Channel:   atoi(l.Channel),
		SignalDBM: atoi(l.Signal),
		NoiseDBM:  atoi(l.Noise),
		Rate:      atoi(l.DataRate),
		SSID:      first(l.SSID),
		Source:    macField(l.SA),
		BSSID:     macField(l.BSSID),
	}
	if ts, err := strconv.ParseFloat(first(l.FrameTime), 64); err == nil {
		sec, frac := math.Modf(ts)
		f.Timestamp = time.Unix(int64(sec), int64(frac*1e9))
	} else {
		f.Timestamp = time.Now()
	}

	switch {
	case st == 0x08 || st == 0x05:
		f.Kind = models.FrameBeacon
		if st == 0x05 {
			f.Kind = models.FrameProbeResp
		}
		f.ESS = flag(l.ESS)
		f.IBSS = flag(l.IBSS)
		switch {
		case first(l.RSNVersion) != "":
			f.Crypt = models.CryptWPA | models.CryptAESCCM
		case first(l.WPAVersion) != "":
			f.Crypt = models.CryptWPA | models.CryptTKIP
		case flag(l.Privacy):
			f.Crypt = models.CryptWEP
		}
	case st == 0x04:
		f.Kind = models.FrameProbeReq
		f.BSSID = f.Source
	case st >= 0x20 && st <= 0x2f:
		f.Kind = models.FrameData
		if flag(l.ToDS) && flag(l.FromDS) {
			return models.Frame{}, false
		}
	default:
		return models.Frame{}, false
	}

	// wlan_radio.phy: 4 = 802.11b, 5 = a, 6 = g, 7 = n, 8 = ac
	switch first(l.PHY) {
	case "4":
		f.Carrier = models.Carrier80211b
	case "5":
		f.Carrier = models.Carrier80211a
	case "6":
		f.Carrier = models.Carrier80211g
	case "7":
		f.Carrier = models.Carrier80211n
	case "8":
		f.Carrier = models.Carrier80211ac
	}
	return f, true
}
