package netlist

import "gonetlist/internal/models"

// DirtyQueue is the unordered set of entities changed since the last drain.
type DirtyQueue struct {
	pending map[models.MAC]struct{}
}

// NewDirtyQueue returns an empty queue.
func NewDirtyQueue() *DirtyQueue {
	return &DirtyQueue{pending: make(map[models.MAC]struct{})}
}

// MarkDirty records addr. Marking twice is the same as marking once.
func (q *DirtyQueue) MarkDirty(addr models.MAC) {
	q.pending[addr] = struct{}{}
}

// Remove forgets a pending addr, reporting whether it was pending.
func (q *DirtyQueue) Remove(addr models.MAC) bool {
	if _, ok := q.pending[addr]; !ok {
		return false
	}
	delete(q.pending, addr)
	return true
}

// Len is the number of pending identities.
func (q *DirtyQueue) Len() int {
	return len(q.pending)
}

// Drain returns every pending identity and empties the queue.
func (q *DirtyQueue) Drain() []models.MAC {
	if len(q.pending) == 0 {
		return nil
	}
	out := make([]models.MAC, 0, len(q.pending))
	for addr := range q.pending {
		out = append(out, addr)
	}
	clear(q.pending)
	return out
}
