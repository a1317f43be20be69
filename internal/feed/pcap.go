package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// PcapConfig controls a libpcap capture.
type PcapConfig struct {
	// Interface is a monitor-mode interface to capture from live.
	Interface string
	// File is an offline capture to read instead of Interface.
	File string
	// Filter is an optional BPF filter.
	Filter string
	// SnapLen defaults to 65536 if unset.
	SnapLen int32
	// Promisc defaults to true if unset.
	Promisc *bool
}

func applyDefaults(cfg PcapConfig) PcapConfig {
	if cfg.SnapLen <= 0 {
		cfg.SnapLen = 65536
	}
	if cfg.Promisc == nil {
		on := true
		cfg.Promisc = &on
	}
	return cfg
}

// PcapSource decodes 802.11 frames with gopacket and feeds them to a Coalescer.
type PcapSource struct {
	cfg PcapConfig
	out *Coalescer
	log *slog.Logger
}

// NewPcapSource validates cfg and returns a source writing to out.
func NewPcapSource(cfg PcapConfig, out *Coalescer, log *slog.Logger) (*PcapSource, error) {
	if cfg.Interface == "" && cfg.File == "" {
		return nil, errors.New("pcap: interface or file required")
	}
	if out == nil {
		return nil, errors.New("pcap: nil coalescer")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PcapSource{cfg: applyDefaults(cfg), out: out, log: log}, nil
}

func (s *PcapSource) open() (*pcap.Handle, error) {
	if s.cfg.File != "" {
		h, err := pcap.OpenOffline(s.cfg.File)
		if err != nil {
			return nil, fmt.Errorf("could not open capture file: %w", err)
		}
		return h, nil
	}
	h, err := pcap.OpenLive(s.cfg.Interface, s.cfg.SnapLen, *s.cfg.Promisc, 250*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("could not open handle: %w", err)
	}
	return h, nil
}

// Run captures until ctx is done or an offline file is exhausted.
func (s *PcapSource) Run(ctx context.Context) error {
	handle, err := s.open()
	if err != nil {
		return err
	}
	defer handle.Close()

	if s.cfg.Filter != "" {
		if err := handle.SetBPFFilter(s.cfg.Filter); err != nil {
			return fmt.Errorf("could not set BPF filter: %w", err)
		}
	}

	switch lt := handle.LinkType(); lt {
	case layers.LinkTypeIEEE80211Radio, layers.LinkTypeIEEE802_11:
	default:
		return fmt.Errorf("pcap: link type %s carries no 802.11 frames", lt)
	}

	s.log.Info("pcap capture started", "interface", s.cfg.Interface, "file", s.cfg.File)
	defer s.log.Info("pcap capture stopped", "frames", s.out.Frames())

	src := gopacket.NewPacketSource(handle, handle.LinkType())
	src.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	in := src.Packets()
	for {
		select {
		case <-ctx.Done():
			return nil
		case packet, ok := <-in:
			if !ok {
				return nil
			}
			if f, ok := decodePacket(packet).toFrame(); ok {
				s.out.Observe(f)
			}
		}
	}
}

// decodePacket pulls the layers toFrame needs out of a packet.
func decodePacket(p gopacket.Packet) *dot11Frame {
	d := &dot11Frame{}
	if md := p.Metadata(); md != nil {
		d.timestamp = md.Timestamp
		d.length = md.Length
	}
	if l, ok := p.Layer(layers.LayerTypeRadioTap).(*layers.RadioTap); ok {
		d.radio = l
	}
	if l, ok := p.Layer(layers.LayerTypeDot11).(*layers.Dot11); ok {
		d.dot11 = l
	}
	if l, ok := p.Layer(layers.LayerTypeDot11MgmtBeacon).(*layers.Dot11MgmtBeacon); ok {
		d.capab = l.Flags
	}
	if l, ok := p.Layer(layers.LayerTypeDot11MgmtProbeResp).(*layers.Dot11MgmtProbeResp); ok {
		d.capab = l.Flags
	}
	for _, l := range p.Layers() {
		if ie, ok := l.(*layers.Dot11InformationElement); ok {
			d.elements = append(d.elements, ie)
		}
	}
	return d
}
