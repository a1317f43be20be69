package netlist

import (
	"gonetlist/internal/models"
	"testing"
)

func TestDrainIsIdempotent(t *testing.T) {
	q := NewDirtyQueue()
	a := models.MAC{0, 0, 0, 0, 0, 1}
	b := models.MAC{0, 0, 0, 0, 0, 2}

	q.MarkDirty(a)
	q.MarkDirty(a)
	q.MarkDirty(b)
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2", q.Len())
	}

	if got := q.Drain(); len(got) != 2 {
		t.Fatalf("first Drain = %v, want 2 entries", got)
	}
	if got := q.Drain(); len(got) != 0 {
		t.Errorf("second Drain = %v, want empty", got)
	}
}

func TestDirtyQueueRemove(t *testing.T) {
	q := NewDirtyQueue()
	a := models.MAC{0, 0, 0, 0, 0, 1}

	if q.Remove(a) {
		t.Error("Remove on empty queue reported true")
	}
	q.MarkDirty(a)
	if !q.Remove(a) {
		t.Error("Remove of pending addr reported false")
	}
	if got := q.Drain(); got != nil {
		t.Errorf("Drain after Remove = %v", got)
	}
}
