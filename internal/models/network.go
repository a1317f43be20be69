package models

import (
	"net"
	"strings"
	"time"
)

// NetType classifies a tracked network.
type NetType uint8

const (
	NetUnknown NetType = iota
	NetAP
	NetAdhoc
	NetProbe
	NetData
	NetTurbocell
	// NetMixed is only produced by aggregation over members of different types.
	NetMixed
)

var netTypeNames = map[NetType]string{
	NetUnknown:   "unknown",
	NetAP:        "ap",
	NetAdhoc:     "adhoc",
	NetProbe:     "probe",
	NetData:      "data",
	NetTurbocell: "turbocell",
	NetMixed:     "mixed",
}

func (t NetType) String() string {
	if s, ok := netTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseNetType maps a protocol type name (or its numeric form) to a NetType.
func ParseNetType(s string) NetType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ap", "infrastructure", "0":
		return NetAP
	case "adhoc", "ad-hoc", "1":
		return NetAdhoc
	case "probe", "2":
		return NetProbe
	case "turbocell", "3":
		return NetTurbocell
	case "data", "4":
		return NetData
	case "mixed":
		return NetMixed
	default:
		return NetUnknown
	}
}

// CryptSet is a bit set of observed encryption schemes.
type CryptSet uint32

const (
	CryptWEP CryptSet = 1 << iota
	CryptTKIP
	CryptWPA
	CryptPSK
	CryptAESCCM
	CryptSAE
	CryptEAP
)

var cryptNames = []struct {
	bit  CryptSet
	name string
}{
	{CryptWEP, "WEP"},
	{CryptTKIP, "TKIP"},
	{CryptWPA, "WPA"},
	{CryptPSK, "PSK"},
	{CryptAESCCM, "AES-CCM"},
	{CryptSAE, "SAE"},
	{CryptEAP, "EAP"},
}

// Has reports whether every bit in c2 is set.
func (c CryptSet) Has(c2 CryptSet) bool { return c&c2 == c2 }

func (c CryptSet) String() string {
	if c == 0 {
		return "None"
	}
	var parts []string
	for _, cn := range cryptNames {
		if c.Has(cn.bit) {
			parts = append(parts, cn.name)
		}
	}
	return strings.Join(parts, " ")
}

// CarrierSet is a bit set of PHY carriers a network was seen on.
type CarrierSet uint8

const (
	Carrier80211a CarrierSet = 1 << iota
	Carrier80211b
	Carrier80211g
	Carrier80211n
	Carrier80211ac
)

func (c CarrierSet) String() string {
	var parts []string
	for _, cn := range []struct {
		bit  CarrierSet
		name string
	}{
		{Carrier80211a, "a"}, {Carrier80211b, "b"}, {Carrier80211g, "g"},
		{Carrier80211n, "n"}, {Carrier80211ac, "ac"},
	} {
		if c&cn.bit != 0 {
			parts = append(parts, cn.name)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return "802.11" + strings.Join(parts, "/")
}

// GPSBounds is the bounding box of positions a network was observed from.
type GPSBounds struct {
	Fixed  bool
	MinLat float64
	MinLon float64
	MinAlt float64
	MinSpd float64
	MaxLat float64
	MaxLon float64
	MaxAlt float64
	MaxSpd float64
}

// Network is one tracked BSSID. Values are owned by the tracker store; the netlist
// engine only keeps references to them.
type Network struct {
	Addr    MAC
	Type    NetType
	SSID    string
	Cloaked bool

	LLCPackets    int64
	DataPackets   int64
	CryptPackets  int64
	DupeIVPackets int64
	Retries       int64
	Fragments     int64
	// NewPackets counts packets since the last decay sweep.
	NewPackets int64
	DataSize   int64

	Channel     int
	MaxSeenRate int
	Clients     int

	FirstTime time.Time
	LastTime  time.Time

	Crypt   CryptSet
	Carrier CarrierSet

	SignalDBM    int
	NoiseDBM     int
	MinSignalDBM int
	MaxSignalDBM int
	MinNoiseDBM  int
	MaxNoiseDBM  int

	GPS GPSBounds

	RangeIP net.IP
	Manuf   string
	Model   string

	// Dirty is raised by the store on every change and cleared once observed.
	Dirty bool
}

// Packets is the total frame count used for display and sorting.
func (n *Network) Packets() int64 {
	return n.LLCPackets + n.DataPackets
}

// NaturalName is the name a network is shown under when nobody named it.
func (n *Network) NaturalName() string {
	if n.SSID != "" {
		return n.SSID
	}
	switch {
	case n.Type == NetProbe:
		return "<Any>"
	case n.Cloaked:
		return "<Hidden SSID>"
	default:
		return "<Unknown>"
	}
}
