package feed

import (
	"bytes"
	"gonetlist/internal/models"
	"net"
	"time"

	"github.com/google/gopacket/layers"
)

// ChannelFromFrequency maps a centre frequency in MHz to an 802.11 channel number.
// Unknown frequencies map to 0.
func ChannelFromFrequency(mhz int) int {
	switch {
	case mhz == 2484:
		return 14
	case mhz >= 2412 && mhz <= 2472:
		return (mhz - 2407) / 5
	case mhz >= 5160 && mhz <= 5885:
		return (mhz - 5000) / 5
	case mhz >= 5955 && mhz <= 7115:
		return (mhz - 5950) / 5
	default:
		return 0
	}
}

const (
	capESS     = 0x0001
	capIBSS    = 0x0002
	capPrivacy = 0x0010
)

var wpaOUI = []byte{0x00, 0x50, 0xf2, 0x01}

// dot11Frame holds the decoded layers of one captured frame.
type dot11Frame struct {
	timestamp time.Time
	length    int
	radio     *layers.RadioTap // nil without a radiotap header
	dot11     *layers.Dot11
	capab     uint16 // capability field of beacons and probe responses
	elements  []*layers.Dot11InformationElement
}

// toFrame turns decoded layers into a Frame. It reports false for frames that
// carry nothing the tracker uses.
func (d *dot11Frame) toFrame() (models.Frame, bool) {
	if d.dot11 == nil {
		return models.Frame{}, false
	}
	dot := d.dot11
	f := models.Frame{
		Timestamp: d.timestamp,
		Length:    d.length,
		Retry:     dot.Flags.Retry(),
		Fragment:  dot.Flags.MF(),
		Protected: dot.Flags.WEP(),
	}

	switch {
	case dot.Type == layers.Dot11TypeMgmtBeacon || dot.Type == layers.Dot11TypeMgmtProbeResp:
		f.Kind = models.FrameBeacon
		if dot.Type == layers.Dot11TypeMgmtProbeResp {
			f.Kind = models.FrameProbeResp
		}
		f.BSSID = mac(dot.Address3)
		f.Source = mac(dot.Address2)
		f.ESS = d.capab&capESS != 0
		f.IBSS = d.capab&capIBSS != 0
		f.Crypt = elementCrypt(d.elements, d.capab&capPrivacy != 0)
	case dot.Type == layers.Dot11TypeMgmtProbeReq:
		// probe requests are tracked under the client that sends them
		f.Kind = models.FrameProbeReq
		f.Source = mac(dot.Address2)
		f.BSSID = f.Source
	case dot.Type.MainType() == layers.Dot11TypeData:
		f.Kind = models.FrameData
		toDS, fromDS := dot.Flags.ToDS(), dot.Flags.FromDS()
		switch {
		case toDS && fromDS:
			return models.Frame{}, false
		case toDS:
			f.BSSID = mac(dot.Address1)
		case fromDS:
			f.BSSID = mac(dot.Address2)
		default:
			f.BSSID = mac(dot.Address3)
		}
		f.Source = mac(dot.Address2)
	default:
		return models.Frame{}, false
	}

	for _, ie := range d.elements {
		switch ie.ID {
		case layers.Dot11InformationElementIDSSID:
			if len(bytes.Trim(ie.Info, "\x00")) > 0 {
				f.SSID = string(ie.Info)
			}
		case layers.Dot11InformationElementIDDSSet:
			if len(ie.Info) == 1 {
				f.Channel = int(ie.Info[0])
			}
		}
	}

	if rt := d.radio; rt != nil {
		if f.Channel == 0 {
			f.Channel = ChannelFromFrequency(int(rt.ChannelFrequency))
		}
		if rt.Present.DBMAntennaSignal() {
			f.SignalDBM = int(rt.DBMAntennaSignal)
		}
		if rt.Present.DBMAntennaNoise() {
			f.NoiseDBM = int(rt.DBMAntennaNoise)
		}
		if rt.Present.Rate() {
			f.Rate = int(rt.Rate) / 2
		}
		f.Carrier = carrier(rt)
	}
	return f, true
}

// mac converts an address, leaving short or missing ones zero.
func mac(hw net.HardwareAddr) models.MAC {
	m, _ := models.FromHardwareAddr(hw)
	return m
}

func elementCrypt(elements []*layers.Dot11InformationElement, privacy bool) models.CryptSet {
	var c models.CryptSet
	for _, ie := range elements {
		switch {
		case ie.ID == layers.Dot11InformationElementIDRSNInfo:
			c |= models.CryptWPA | models.CryptAESCCM
		case ie.ID == layers.Dot11InformationElementIDVendor && bytes.HasPrefix(ie.Info, wpaOUI):
			c |= models.CryptWPA | models.CryptTKIP
		}
	}
	if c == 0 && privacy {
		c = models.CryptWEP
	}
	return c
}

func carrier(rt *layers.RadioTap) models.CarrierSet {
	var c models.CarrierSet
	switch {
	case rt.ChannelFlags.Ghz5():
		c |= models.Carrier80211a
	case rt.ChannelFlags.CCK():
		c |= models.Carrier80211b
	case rt.ChannelFlags.OFDM():
		c |= models.Carrier80211g
	}
	if rt.Present.MCS() {
		c |= models.Carrier80211n
	}
	if rt.Present.VHT() {
		c |= models.Carrier80211ac
	}
	return c
}
