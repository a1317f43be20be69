package netlist

import (
	"gonetlist/internal/models"
	"sort"
)

// GroupID identifies a display group. Singleton groups use their member's address.
type GroupID string

// Reserved auto-groups. They exist for the life of the list, even when empty.
const (
	ProbeGroupID GroupID = "autogroup-probe"
	AdhocGroupID GroupID = "autogroup-adhoc"
	DataGroupID  GroupID = "autogroup-data"
)

// GroupKind is the closed set of group variants.
type GroupKind uint8

const (
	KindSingleton GroupKind = iota
	KindManual
	KindReserved
)

func (k GroupKind) String() string {
	switch k {
	case KindManual:
		return "manual"
	case KindReserved:
		return "reserved"
	default:
		return "singleton"
	}
}

// CacheState is the caching status of a group.
type CacheState uint8

const (
	StateClean CacheState = iota
	StateAggregateDirty
	StateDisplayDirty
)

func (s CacheState) String() string {
	switch s {
	case StateAggregateDirty:
		return "aggregate-dirty"
	case StateDisplayDirty:
		return "display-dirty"
	default:
		return "clean"
	}
}

// artifact is a bit mask over the three cached text artifacts.
type artifact uint8

const (
	artSummary artifact = 1 << iota
	artDetails
	artMembers

	artAll = artSummary | artDetails | artMembers
)

// renderCache holds the cached text of a group and which parts are stale.
type renderCache struct {
	line    string
	details []string
	members []string
	stale   artifact
}

// Group aggregates one or more networks into a single row.
type Group struct {
	id      GroupID
	kind    GroupKind
	name    string // explicit name; empty when derived
	members map[models.MAC]*models.Network

	// meta is the synthesized aggregate, recomputed in place.
	meta        models.Network
	displayName string

	dirty     bool
	destroyed bool
	expanded  bool
	nlines    int
	tier      uint8 // autofit activity tier, set once per sort pass

	cache renderCache
}

func newGroup(id GroupID, kind GroupKind, name string) *Group {
	return &Group{
		id:      id,
		kind:    kind,
		name:    name,
		members: make(map[models.MAC]*models.Network),
		nlines:  1,
		cache:   renderCache{stale: artAll},
	}
}

// ID returns the group identity.
func (g *Group) ID() GroupID { return g.id }

// Kind returns the group variant.
func (g *Group) Kind() GroupKind { return g.kind }

// Name returns the display name as of the last aggregation.
func (g *Group) Name() string { return g.displayName }

// Len is the number of members.
func (g *Group) Len() int { return len(g.members) }

// Dirty reports whether the aggregate is stale.
func (g *Group) Dirty() bool { return g.dirty }

// DisplayDirty reports whether any cached text artifact is stale.
func (g *Group) DisplayDirty() bool { return g.cache.stale != 0 }

// Expanded reports whether member lines are shown beneath the summary line.
func (g *Group) Expanded() bool { return g.expanded }

// Lines is the number of display rows the group occupied at its last layout.
func (g *Group) Lines() int { return g.nlines }

// State reports where the group is in the clean / aggregate-dirty / display-dirty cycle.
func (g *Group) State() CacheState {
	switch {
	case g.dirty:
		return StateAggregateDirty
	case g.cache.stale != 0:
		return StateDisplayDirty
	default:
		return StateClean
	}
}

// Aggregate returns a copy of the synthesized aggregate view.
func (g *Group) Aggregate() models.Network {
	return g.meta
}

// Members returns the members in ascending address order.
func (g *Group) Members() []*models.Network {
	out := make([]*models.Network, 0, len(g.members))
	for _, n := range g.members {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Addr.Compare(out[j].Addr) < 0
	})
	return out
}

// Has reports whether addr is a member.
func (g *Group) Has(addr models.MAC) bool {
	_, ok := g.members[addr]
	return ok
}

func (g *Group) markDirty() {
	g.dirty = true
}

func (g *Group) invalidate(a artifact) {
	g.cache.stale |= a
}
