package netlist

import (
	"errors"
	"fmt"
	"gonetlist/internal/models"
	"net"
)

// common folds a field to its shared value, or to "mixed" once two members disagree.
// The result does not depend on fold order.
type common[T comparable] struct {
	val   T
	set   bool
	mixed bool
}

func (c *common[T]) add(v T) {
	switch {
	case !c.set:
		c.val, c.set = v, true
	case c.val != v:
		c.mixed = true
	}
}

func (c *common[T]) result(mixed T) T {
	if c.mixed {
		return mixed
	}
	return c.val
}

func minNonZero(cur, v int) int {
	if v == 0 {
		return cur
	}
	if cur == 0 || v < cur {
		return v
	}
	return cur
}

func maxNonZero(cur, v int) int {
	if v == 0 {
		return cur
	}
	if cur == 0 || v > cur {
		return v
	}
	return cur
}

// aggregate recomputes g.meta from the current members. Every step is a sum, min,
// max, union or agree-or-mixed, so member order never changes the result. Members
// with unusable fields are skipped for those fields only.
func (g *Group) aggregate() error {
	var errs []error
	m := &g.meta
	*m = models.Network{}

	var (
		typ     common[models.NetType]
		ssid    common[string]
		manuf   common[string]
		model   common[string]
		rangeIP common[string]
		first   = true
	)

	for _, n := range g.members {
		if first || n.Addr.Compare(m.Addr) < 0 {
			m.Addr = n.Addr
		}
		first = false

		typ.add(n.Type)
		ssid.add(n.SSID)
		manuf.add(n.Manuf)
		model.add(n.Model)
		rangeIP.add(n.RangeIP.String())
		m.Cloaked = m.Cloaked || n.Cloaked

		m.LLCPackets += n.LLCPackets
		m.DataPackets += n.DataPackets
		m.CryptPackets += n.CryptPackets
		m.DupeIVPackets += n.DupeIVPackets
		m.Retries += n.Retries
		m.Fragments += n.Fragments
		m.NewPackets += n.NewPackets
		m.DataSize += n.DataSize
		m.Clients += n.Clients
		if n.MaxSeenRate > m.MaxSeenRate {
			m.MaxSeenRate = n.MaxSeenRate
		}

		if n.Channel < 0 {
			errs = append(errs, &MalformedEntityError{Addr: n.Addr, Field: "channel"})
		} else {
			m.Channel = minNonZero(m.Channel, n.Channel)
		}

		switch {
		case n.FirstTime.IsZero():
			errs = append(errs, &MalformedEntityError{Addr: n.Addr, Field: "firsttime"})
		case m.FirstTime.IsZero() || n.FirstTime.Before(m.FirstTime):
			m.FirstTime = n.FirstTime
		}
		switch {
		case n.LastTime.IsZero() || (!n.FirstTime.IsZero() && n.LastTime.Before(n.FirstTime)):
			errs = append(errs, &MalformedEntityError{Addr: n.Addr, Field: "lasttime"})
		case n.LastTime.After(m.LastTime):
			m.LastTime = n.LastTime
		}

		m.Crypt |= n.Crypt
		m.Carrier |= n.Carrier

		m.SignalDBM = maxNonZero(m.SignalDBM, n.SignalDBM)
		m.NoiseDBM = minNonZero(m.NoiseDBM, n.NoiseDBM)
		m.MinSignalDBM = minNonZero(m.MinSignalDBM, n.MinSignalDBM)
		m.MaxSignalDBM = maxNonZero(m.MaxSignalDBM, n.MaxSignalDBM)
		m.MinNoiseDBM = minNonZero(m.MinNoiseDBM, n.MinNoiseDBM)
		m.MaxNoiseDBM = maxNonZero(m.MaxNoiseDBM, n.MaxNoiseDBM)

		if n.GPS.Fixed {
			mergeGPS(&m.GPS, n.GPS)
		}
	}

	m.Type = typ.result(models.NetMixed)
	m.SSID = ssid.result("")
	m.Manuf = manuf.result("Mixed")
	m.Model = model.result("Mixed")
	if ip := rangeIP.result(""); ip != "" && ip != "<nil>" {
		m.RangeIP = net.ParseIP(ip)
	}

	switch {
	case g.name != "":
		g.displayName = g.name
	case len(g.members) == 1:
		for _, n := range g.members {
			g.displayName = n.NaturalName()
		}
	default:
		g.displayName = fmt.Sprintf("(%d networks)", len(g.members))
	}

	g.dirty = false
	g.cache.stale = artAll
	return errors.Join(errs...)
}

func mergeGPS(dst *models.GPSBounds, src models.GPSBounds) {
	if !dst.Fixed {
		*dst = src
		return
	}
	dst.MinLat = min(dst.MinLat, src.MinLat)
	dst.MinLon = min(dst.MinLon, src.MinLon)
	dst.MinAlt = min(dst.MinAlt, src.MinAlt)
	dst.MinSpd = min(dst.MinSpd, src.MinSpd)
	dst.MaxLat = max(dst.MaxLat, src.MaxLat)
	dst.MaxLon = max(dst.MaxLon, src.MaxLon)
	dst.MaxAlt = max(dst.MaxAlt, src.MaxAlt)
	dst.MaxSpd = max(dst.MaxSpd, src.MaxSpd)
}
