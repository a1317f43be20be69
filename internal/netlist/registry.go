package netlist

import (
	"gonetlist/internal/groups"
	"gonetlist/internal/models"
)

// Registry assigns every known network to exactly one group and owns group
// creation and destruction.
type Registry struct {
	manual map[models.MAC]GroupID
	names  map[GroupID]string

	groups map[GroupID]*Group
	owner  map[models.MAC]*Group

	// pending holds groups whose aggregate went stale since the last pass.
	pending map[*Group]struct{}
	// changed is raised on any membership change and consumed by the sort pass.
	changed bool
}

// NewRegistry builds a registry seeded with the persisted manual mapping.
func NewRegistry(manual groups.Mapping) *Registry {
	r := &Registry{
		manual:  make(map[models.MAC]GroupID, len(manual.Assign)),
		names:   make(map[GroupID]string, len(manual.Names)),
		groups:  make(map[GroupID]*Group),
		owner:   make(map[models.MAC]*Group),
		pending: make(map[*Group]struct{}),
	}
	for addr, id := range manual.Assign {
		r.manual[addr] = GroupID(id)
	}
	for id, name := range manual.Names {
		r.names[GroupID(id)] = name
	}
	// every manual id gets a names entry so ensure can tell manual ids apart
	for _, id := range r.manual {
		if _, ok := r.names[id]; !ok {
			r.names[id] = ""
		}
	}

	r.groups[ProbeGroupID] = newGroup(ProbeGroupID, KindReserved, "Autogroup Probe")
	r.groups[AdhocGroupID] = newGroup(AdhocGroupID, KindReserved, "Autogroup Adhoc")
	r.groups[DataGroupID] = newGroup(DataGroupID, KindReserved, "Autogroup Data")
	return r
}

// Resolve returns the group a network belongs in: its manual assignment, else the
// reserved auto-group for its type, else its own singleton group.
func (r *Registry) Resolve(n *models.Network) GroupID {
	if id, ok := r.manual[n.Addr]; ok {
		return id
	}
	switch n.Type {
	case models.NetProbe:
		return ProbeGroupID
	case models.NetAdhoc:
		return AdhocGroupID
	case models.NetData:
		return DataGroupID
	}
	return GroupID(n.Addr.String())
}

// Group returns a live group.
func (r *Registry) Group(id GroupID) (*Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, &UnknownGroupError{Group: id}
	}
	return g, nil
}

// GroupOf returns the group holding addr.
func (r *Registry) GroupOf(addr models.MAC) (*Group, bool) {
	g, ok := r.owner[addr]
	return g, ok
}

// Len is the number of live groups, reserved groups included.
func (r *Registry) Len() int {
	return len(r.groups)
}

// ensure returns the group for id, creating it when needed.
func (r *Registry) ensure(id GroupID) *Group {
	if g, ok := r.groups[id]; ok {
		return g
	}
	kind := KindSingleton
	if _, manual := r.names[id]; manual {
		kind = KindManual
	}
	g := newGroup(id, kind, r.names[id])
	r.groups[id] = g
	return g
}

// AddMember inserts n into g and marks g dirty.
func (r *Registry) AddMember(g *Group, n *models.Network) error {
	if cur, ok := r.owner[n.Addr]; ok {
		return &AlreadyMemberError{Addr: n.Addr, Group: cur.id}
	}
	if g.destroyed {
		return &UnknownGroupError{Group: g.id}
	}
	g.members[n.Addr] = n
	r.owner[n.Addr] = g
	r.touch(g)
	r.changed = true
	return nil
}

// RemoveMember takes addr out of g. A non-reserved group left empty is destroyed.
func (r *Registry) RemoveMember(g *Group, addr models.MAC) error {
	if _, ok := g.members[addr]; !ok {
		return &NotMemberError{Addr: addr, Group: g.id}
	}
	delete(g.members, addr)
	delete(r.owner, addr)
	r.changed = true

	if len(g.members) == 0 && g.kind != KindReserved {
		r.destroy(g)
		return nil
	}
	r.touch(g)
	return nil
}

func (r *Registry) destroy(g *Group) {
	g.destroyed = true
	delete(r.groups, g.id)
	delete(r.pending, g)
}

// MarkGroupDirty flags g for reaggregation on the next pass.
func (r *Registry) MarkGroupDirty(g *Group) {
	r.touch(g)
}

func (r *Registry) touch(g *Group) {
	g.markDirty()
	r.pending[g] = struct{}{}
}

// Reaggregate recomputes one group's aggregate view. A non-nil error lists
// malformed members; the aggregate is still updated.
func (r *Registry) Reaggregate(g *Group) error {
	delete(r.pending, g)
	r.changed = true
	return g.aggregate()
}

// move relocates an already grouped network into the group id.
func (r *Registry) move(n *models.Network, id GroupID) error {
	if cur, ok := r.owner[n.Addr]; ok {
		if cur.id == id {
			return nil
		}
		if err := r.RemoveMember(cur, n.Addr); err != nil {
			return err
		}
	}
	return r.AddMember(r.ensure(id), n)
}

// mapping snapshots the manual assignment for persistence.
func (r *Registry) mapping() groups.Mapping {
	m := groups.NewMapping()
	for addr, id := range r.manual {
		m.Assign[addr] = string(id)
	}
	for id, name := range r.names {
		if name != "" {
			m.Names[string(id)] = name
		}
	}
	return m
}

// pruneNames drops manual ids left without any assignment.
func (r *Registry) pruneNames() {
	used := make(map[GroupID]struct{}, len(r.names))
	for _, id := range r.manual {
		used[id] = struct{}{}
	}
	for id := range r.names {
		if _, ok := used[id]; !ok {
			delete(r.names, id)
		}
	}
}
