package models

import "time"

// FrameKind is the coarse 802.11 frame class the tracker cares about.
type FrameKind uint8

const (
	FrameOther FrameKind = iota
	FrameBeacon
	FrameProbeReq
	FrameProbeResp
	FrameData
)

// Frame holds the information extracted from a single captured 802.11 frame.
type Frame struct {
	Timestamp time.Time
	Kind      FrameKind
	BSSID     MAC
	Source    MAC
	SSID      string
	Channel   int
	SignalDBM int // 0 when the capture carried no radio header
	NoiseDBM  int
	Length    int
	Rate      int // Mbps

	// Capability bits from beacons and probe responses.
	ESS  bool
	IBSS bool

	Protected bool
	Retry     bool
	Fragment  bool
	Crypt     CryptSet
	Carrier   CarrierSet
}

// FrameSummary is the merge of every frame seen for one BSSID since the last flush.
type FrameSummary struct {
	Addr  MAC
	SSID  string
	Saw   SawFlags
	Crypt CryptSet

	Carrier CarrierSet
	Channel int

	LLCPackets   int64
	DataPackets  int64
	CryptPackets int64
	Retries      int64
	Fragments    int64
	Bytes        int64

	MaxRate int

	SignalDBM    int
	NoiseDBM     int
	MinSignalDBM int
	MaxSignalDBM int

	FirstTime time.Time
	LastTime  time.Time
}

// SawFlags records which frame classes contributed to a summary.
type SawFlags uint8

const (
	SawBeaconESS SawFlags = 1 << iota
	SawBeaconIBSS
	SawProbeReq
	SawData
)

// Packets is the number of frames merged into the summary.
func (s *FrameSummary) Packets() int64 {
	return s.LLCPackets + s.DataPackets
}

// Add merges one frame into the summary.
func (s *FrameSummary) Add(f Frame) {
	switch f.Kind {
	case FrameBeacon, FrameProbeResp:
		s.LLCPackets++
		if f.IBSS {
			s.Saw |= SawBeaconIBSS
		} else if f.ESS {
			s.Saw |= SawBeaconESS
		}
		if f.SSID != "" {
			s.SSID = f.SSID
		}
	case FrameProbeReq:
		s.LLCPackets++
		s.Saw |= SawProbeReq
		if f.SSID != "" && s.SSID == "" {
			s.SSID = f.SSID
		}
	case FrameData:
		s.DataPackets++
		s.Saw |= SawData
		if f.Protected {
			s.CryptPackets++
		}
	default:
		s.LLCPackets++
	}

	s.Crypt |= f.Crypt
	s.Carrier |= f.Carrier
	if f.Channel > 0 {
		s.Channel = f.Channel
	}
	if f.Retry {
		s.Retries++
	}
	if f.Fragment {
		s.Fragments++
	}
	s.Bytes += int64(f.Length)
	if f.Rate > s.MaxRate {
		s.MaxRate = f.Rate
	}

	if f.SignalDBM != 0 {
		s.SignalDBM = f.SignalDBM
		if s.MinSignalDBM == 0 || f.SignalDBM < s.MinSignalDBM {
			s.MinSignalDBM = f.SignalDBM
		}
		if s.MaxSignalDBM == 0 || f.SignalDBM > s.MaxSignalDBM {
			s.MaxSignalDBM = f.SignalDBM
		}
	}
	if f.NoiseDBM != 0 {
		s.NoiseDBM = f.NoiseDBM
	}

	if s.FirstTime.IsZero() || f.Timestamp.Before(s.FirstTime) {
		s.FirstTime = f.Timestamp
	}
	if f.Timestamp.After(s.LastTime) {
		s.LastTime = f.Timestamp
	}
}
