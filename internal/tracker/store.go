package tracker

import (
	"errors"
	"gonetlist/internal/models"
	"net"
	"sync"
	"time"
)

// Store owns every tracked network. Returned *Network values stay valid until the
// network expires and must only be read on the goroutine that drives the store.
type Store struct {
	mu      sync.Mutex
	nets    map[models.MAC]*models.Network
	touched map[models.MAC]struct{}
	now     func() time.Time

	windowUpdates int64
	windowFrames  int64
	lastTick      time.Time

	// latest is the newest LastTime of any network.
	latest time.Time
}

// NewStore creates an empty store. A nil clock means time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		nets:     make(map[models.MAC]*models.Network),
		touched:  make(map[models.MAC]struct{}),
		now:      now,
		lastTick: now(),
	}
}

// Lookup returns the network for addr.
func (s *Store) Lookup(addr models.MAC) (*models.Network, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nets[addr]
	return n, ok
}

// Len is the number of tracked networks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nets)
}

// Touched returns the networks changed since the previous call.
func (s *Store) Touched() []models.MAC {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.touched) == 0 {
		return nil
	}
	out := make([]models.MAC, 0, len(s.touched))
	for addr := range s.touched {
		out = append(out, addr)
	}
	clear(s.touched)
	return out
}

func (s *Store) touch(n *models.Network) {
	n.Dirty = true
	s.touched[n.Addr] = struct{}{}
	if n.LastTime.After(s.latest) {
		s.latest = n.LastTime
	}
}

// Latest is the newest last-seen time of any network, zero before the first one.
func (s *Store) Latest() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// CaptureClock returns a clock that follows the capture rather than the wall:
// it reads the newest last-seen time, or the store clock while the store is empty.
// Replayed capture files age their networks against it.
func (s *Store) CaptureClock() func() time.Time {
	return func() time.Time {
		if t := s.Latest(); !t.IsZero() {
			return t
		}
		return s.now()
	}
}

func (s *Store) ensure(addr models.MAC, first time.Time) *models.Network {
	n, ok := s.nets[addr]
	if !ok {
		n = &models.Network{Addr: addr, FirstTime: first, LastTime: first}
		s.nets[addr] = n
	}
	return n
}

// classify derives a network type from the frame classes seen.
func classify(saw models.SawFlags) models.NetType {
	switch {
	case saw&models.SawBeaconIBSS != 0:
		return models.NetAdhoc
	case saw&models.SawBeaconESS != 0:
		return models.NetAP
	case saw&models.SawData != 0:
		return models.NetData
	case saw&models.SawProbeReq != 0:
		return models.NetProbe
	default:
		return models.NetUnknown
	}
}

// typeRank orders types by how much evidence they carry. A network only ever
// moves up: a probe or data-only network that beacons becomes an AP.
func typeRank(t models.NetType) int {
	switch t {
	case models.NetProbe:
		return 1
	case models.NetData:
		return 2
	case models.NetAP, models.NetAdhoc, models.NetTurbocell:
		return 3
	default:
		return 0
	}
}

// ApplySummary adds the frames of one capture flush to a network, creating it on
// first sight. Counters are deltas.
func (s *Store) ApplySummary(sum models.FrameSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := sum.FirstTime
	if first.IsZero() {
		first = s.now()
	}
	n := s.ensure(sum.Addr, first)

	if t := classify(sum.Saw); typeRank(t) > typeRank(n.Type) {
		n.Type = t
	}
	if sum.SSID != "" {
		n.SSID = sum.SSID
		n.Cloaked = false
	} else if n.SSID == "" && sum.Saw&(models.SawBeaconESS|models.SawBeaconIBSS) != 0 {
		n.Cloaked = true
	}

	n.LLCPackets += sum.LLCPackets
	n.DataPackets += sum.DataPackets
	n.CryptPackets += sum.CryptPackets
	n.Retries += sum.Retries
	n.Fragments += sum.Fragments
	n.DataSize += sum.Bytes
	n.NewPackets += sum.Packets()
	n.MaxSeenRate = max(n.MaxSeenRate, sum.MaxRate)

	if sum.Channel > 0 {
		n.Channel = sum.Channel
	}
	n.Crypt |= sum.Crypt
	n.Carrier |= sum.Carrier

	if sum.SignalDBM != 0 {
		n.SignalDBM = sum.SignalDBM
		n.MinSignalDBM = lower(n.MinSignalDBM, sum.MinSignalDBM)
		n.MaxSignalDBM = higher(n.MaxSignalDBM, sum.MaxSignalDBM)
	}
	if sum.NoiseDBM != 0 {
		n.NoiseDBM = sum.NoiseDBM
		n.MinNoiseDBM = lower(n.MinNoiseDBM, sum.NoiseDBM)
		n.MaxNoiseDBM = higher(n.MaxNoiseDBM, sum.NoiseDBM)
	}

	if sum.FirstTime.Before(n.FirstTime) && !sum.FirstTime.IsZero() {
		n.FirstTime = sum.FirstTime
	}
	if sum.LastTime.After(n.LastTime) {
		n.LastTime = sum.LastTime
	}

	s.windowFrames += sum.Packets()
	s.touch(n)
}

// ApplyUpdate sets the fields carried by a remote update. Values are absolute.
func (s *Store) ApplyUpdate(u models.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.ensure(u.Addr, s.now())

	if v, ok := u.String("type"); ok {
		n.Type = models.ParseNetType(v)
	}
	if v, ok := u.String("ssid"); ok {
		n.SSID = v
	}
	if v, ok := u.Bool("cloaked"); ok {
		n.Cloaked = v
	}

	setInt64(u, "llcpackets", &n.LLCPackets)
	setInt64(u, "datapackets", &n.DataPackets)
	setInt64(u, "cryptpackets", &n.CryptPackets)
	setInt64(u, "dupeivpackets", &n.DupeIVPackets)
	setInt64(u, "retries", &n.Retries)
	setInt64(u, "fragments", &n.Fragments)
	setInt64(u, "newpackets", &n.NewPackets)
	setInt64(u, "datasize", &n.DataSize)

	setInt(u, "channel", &n.Channel)
	setInt(u, "maxseenrate", &n.MaxSeenRate)
	setInt(u, "clients", &n.Clients)
	setInt(u, "signal_dbm", &n.SignalDBM)
	setInt(u, "noise_dbm", &n.NoiseDBM)
	setInt(u, "minsignal_dbm", &n.MinSignalDBM)
	setInt(u, "maxsignal_dbm", &n.MaxSignalDBM)
	setInt(u, "minnoise_dbm", &n.MinNoiseDBM)
	setInt(u, "maxnoise_dbm", &n.MaxNoiseDBM)

	if v, ok := u.Int64("cryptset"); ok {
		n.Crypt = models.CryptSet(v)
	}
	if v, ok := u.Int64("carrierset"); ok {
		n.Carrier = models.CarrierSet(v)
	}
	if v, ok := u.Time("firsttime"); ok {
		n.FirstTime = v
	}
	if v, ok := u.Time("lasttime"); ok {
		n.LastTime = v
	}

	if v, ok := u.Bool("gpsfixed"); ok {
		n.GPS.Fixed = v
	}
	setFloat(u, "minlat", &n.GPS.MinLat)
	setFloat(u, "minlon", &n.GPS.MinLon)
	setFloat(u, "minalt", &n.GPS.MinAlt)
	setFloat(u, "minspd", &n.GPS.MinSpd)
	setFloat(u, "maxlat", &n.GPS.MaxLat)
	setFloat(u, "maxlon", &n.GPS.MaxLon)
	setFloat(u, "maxalt", &n.GPS.MaxAlt)
	setFloat(u, "maxspd", &n.GPS.MaxSpd)

	if v, ok := u.String("rangeip"); ok {
		n.RangeIP = net.ParseIP(v)
	}
	if v, ok := u.String("manuf"); ok {
		n.Manuf = v
	}
	if v, ok := u.String("model"); ok {
		n.Model = v
	}

	s.windowUpdates++
	s.touch(n)
}

func setInt64(u models.Update, name string, dst *int64) {
	if v, ok := u.Int64(name); ok {
		*dst = v
	}
}

func setInt(u models.Update, name string, dst *int) {
	if v, ok := u.Int64(name); ok {
		*dst = int(v)
	}
}

func setFloat(u models.Update, name string, dst *float64) {
	if v, ok := u.Float64(name); ok {
		*dst = v
	}
}

// Decay clears the new-packet count of networks quiet for longer than window, so
// their activity marker fades. It returns how many networks changed.
func (s *Store) Decay(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, n := range s.nets {
		if n.NewPackets > 0 && now.Sub(n.LastTime) > window {
			n.NewPackets = 0
			s.touch(n)
			changed++
		}
	}
	return changed
}

// Expire drops networks not seen for maxAge. release is called before each network
// is deleted so holders of references can let go of it; a release error keeps the
// network. maxAge <= 0 disables expiry.
func (s *Store) Expire(now time.Time, maxAge time.Duration, release func(models.MAC) error) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	removed := 0
	for addr, n := range s.nets {
		if now.Sub(n.LastTime) <= maxAge {
			continue
		}
		if release != nil {
			if err := release(addr); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		delete(s.nets, addr)
		delete(s.touched, addr)
		removed++
	}
	return removed, errors.Join(errs...)
}

// GetRates returns remote updates and captured frames per second since the last call.
func (s *Store) GetRates() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	duration := now.Sub(s.lastTick).Seconds()
	if duration <= 0 {
		return 0, 0
	}

	ups := float64(s.windowUpdates) / duration
	fps := float64(s.windowFrames) / duration

	s.windowUpdates = 0
	s.windowFrames = 0
	s.lastTick = now

	return ups, fps
}

func lower(cur, v int) int {
	if v == 0 {
		return cur
	}
	if cur == 0 || v < cur {
		return v
	}
	return cur
}

func higher(cur, v int) int {
	if v == 0 {
		return cur
	}
	if cur == 0 || v > cur {
		return v
	}
	return cur
}
