package feed

import (
	"gonetlist/internal/models"
	"sync"
	"sync/atomic"

	"github.com/alphadose/haxmap"
)

type pendingSummary struct {
	mu      sync.Mutex
	sum     models.FrameSummary
	flushed bool
}

// Coalescer merges frames per BSSID between flushes. Observe may be called from
// any number of capture goroutines while one goroutine calls Flush.
type Coalescer struct {
	pending *haxmap.Map[uint64, *pendingSummary]
	frames  atomic.Int64
	dropped atomic.Int64
}

// NewCoalescer returns an empty coalescer.
func NewCoalescer() *Coalescer {
	return &Coalescer{
		pending: haxmap.New[uint64, *pendingSummary](1 << 10),
	}
}

// Observe merges one frame. Frames without a usable BSSID are dropped.
func (c *Coalescer) Observe(f models.Frame) {
	if f.BSSID.IsZero() || f.BSSID.IsBroadcast() {
		c.dropped.Add(1)
		return
	}
	key := f.BSSID.Uint64()
	for {
		p, _ := c.pending.GetOrCompute(key, func() *pendingSummary {
			return &pendingSummary{sum: models.FrameSummary{Addr: f.BSSID}}
		})
		p.mu.Lock()
		if p.flushed {
			// lost a race with Flush; retry against the fresh entry
			p.mu.Unlock()
			continue
		}
		p.sum.Add(f)
		p.mu.Unlock()
		c.frames.Add(1)
		return
	}
}

// Flush returns every summary merged since the previous flush.
func (c *Coalescer) Flush() []models.FrameSummary {
	var keys []uint64
	c.pending.ForEach(func(k uint64, _ *pendingSummary) bool {
		keys = append(keys, k)
		return true
	})

	out := make([]models.FrameSummary, 0, len(keys))
	for _, k := range keys {
		p, ok := c.pending.GetAndDel(k)
		if !ok {
			continue
		}
		p.mu.Lock()
		p.flushed = true
		out = append(out, p.sum)
		p.mu.Unlock()
	}
	return out
}

// Frames is the number of frames merged so far.
func (c *Coalescer) Frames() int64 { return c.frames.Load() }

// Dropped is the number of frames discarded for lack of a BSSID.
func (c *Coalescer) Dropped() int64 { return c.dropped.Load() }
