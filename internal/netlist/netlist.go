package netlist

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"gonetlist/internal/groups"
	"gonetlist/internal/models"
	"log/slog"
	"time"
)

// EntitySource resolves identities to the records owned by the entity store.
type EntitySource interface {
	Lookup(addr models.MAC) (*models.Network, bool)
}

// Config holds the startup configuration of a Netlist.
type Config struct {
	Columns     []Column
	Extras      []Extra
	SortMode    SortMode
	ShowExtInfo bool
	Manual      groups.Mapping
	Now         func() time.Time
	Logger      *slog.Logger
}

var (
	defaultColumns = []Column{ColDecay, ColName, ColNetType, ColCrypt, ColChannel, ColPackets, ColDataSize}
	defaultExtras  = []Extra{ExtLastSeen, ExtCrypt, ExtIP, ExtManuf, ExtModel}
)

func applyDefaults(cfg *Config) {
	if len(cfg.Columns) == 0 {
		cfg.Columns = append([]Column(nil), defaultColumns...)
	}
	if cfg.Extras == nil {
		cfg.Extras = append([]Extra(nil), defaultExtras...)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Manual.Assign == nil {
		cfg.Manual = groups.NewMapping()
	}
}

// Netlist is the grouped, sorted and cached network list. It is not safe for
// concurrent use; every method must be called from one goroutine.
type Netlist struct {
	src EntitySource
	now func() time.Time
	log *slog.Logger

	queue *DirtyQueue
	reg   *Registry

	spec        ColumnSpec
	showExtInfo bool
	header      string
	headerStale bool

	mode        SortMode
	sortChanged bool
	display     []*Group

	vp     Viewport
	sel    *Group
	active bool

	stats counters
}

// New builds an empty list over src.
func New(src EntitySource, cfg *Config) (*Netlist, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	var c Config
	if cfg != nil {
		c = *cfg
	}
	applyDefaults(&c)
	if err := validColumns(c.Columns); err != nil {
		return nil, err
	}
	if err := validExtras(c.Extras); err != nil {
		return nil, err
	}
	if c.SortMode >= sortModeCount {
		return nil, fmt.Errorf("netlist: invalid sort mode %d", c.SortMode)
	}

	return &Netlist{
		src:         src,
		now:         c.Now,
		log:         c.Logger,
		queue:       NewDirtyQueue(),
		reg:         NewRegistry(c.Manual),
		spec:        ColumnSpec{Columns: c.Columns, Extras: c.Extras},
		showExtInfo: c.ShowExtInfo,
		headerStale: true,
		mode:        c.SortMode,
		sortChanged: true,
		vp:          Viewport{Selected: -1, Last: -1},
		active:      true,
	}, nil
}

// MarkDirty queues addr for the next trigger. It does no other work.
func (l *Netlist) MarkDirty(addr models.MAC) {
	l.queue.MarkDirty(addr)
}

// Pending is the number of identities waiting for the next trigger.
func (l *Netlist) Pending() int {
	return l.queue.Len()
}

// UpdateTrigger drains the dirty queue, regroups and reaggregates what changed,
// resorts when needed and refreshes stale text. The returned error joins any
// registry errors met on the way; the pass always completes.
func (l *Netlist) UpdateTrigger() error {
	l.stats.triggers.Add(1)
	var errs []error

	drained := l.queue.Drain()
	l.stats.drained.Add(int64(len(drained)))
	for _, addr := range drained {
		if err := l.absorb(addr); err != nil {
			errs = append(errs, err)
		}
	}

	for g := range l.reg.pending {
		err := l.reg.Reaggregate(g)
		l.stats.aggregations.Add(1)
		if err != nil {
			l.stats.malformed.Add(int64(countErrors(err)))
			l.log.Debug("skipped malformed members", "group", g.id, "err", err)
		}
	}

	if l.reg.changed || l.sortChanged {
		l.resort()
	}
	for _, g := range l.display {
		if g.DisplayDirty() {
			l.refresh(g)
		}
	}
	l.fit()

	l.stats.groups.Store(int64(len(l.display)))
	l.stats.entities.Store(int64(len(l.reg.owner)))
	return errors.Join(errs...)
}

// absorb places one drained entity in the group it resolves to.
func (l *Netlist) absorb(addr models.MAC) error {
	n, ok := l.src.Lookup(addr)
	if !ok {
		if g, grouped := l.reg.GroupOf(addr); grouped {
			l.log.Warn("entity vanished without removal", "addr", addr)
			return l.reg.RemoveMember(g, addr)
		}
		return nil
	}
	n.Dirty = false

	id := l.reg.Resolve(n)
	if g, grouped := l.reg.GroupOf(addr); grouped && g.id == id {
		l.reg.MarkGroupDirty(g)
		return nil
	}
	return l.reg.move(n, id)
}

func (l *Netlist) resort() {
	clear(l.display)
	l.display = l.display[:0]
	for _, g := range l.reg.groups {
		if len(g.members) > 0 {
			l.display = append(l.display, g)
		}
	}
	sortGroups(l.display, l.mode, l.now())
	l.reg.changed = false
	l.sortChanged = false
	l.stats.resorts.Add(1)
	l.log.Debug("resorted", "mode", l.mode, "groups", len(l.display))
	l.reselect()
}

func countErrors(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

// RemoveEntity forgets addr ahead of its teardown by the store.
func (l *Netlist) RemoveEntity(addr models.MAC) error {
	pending := l.queue.Remove(addr)
	g, ok := l.reg.GroupOf(addr)
	if !ok {
		if pending {
			return nil
		}
		return &NotMemberError{Addr: addr}
	}
	return l.reg.RemoveMember(g, addr)
}

// SetColumns replaces the column set. Summary and member lines re-render.
func (l *Netlist) SetColumns(cols []Column) error {
	if len(cols) == 0 {
		return errors.New("netlist: empty column set")
	}
	if err := validColumns(cols); err != nil {
		return err
	}
	l.spec.Columns = append([]Column(nil), cols...)
	l.headerStale = true
	l.invalidateAll(artSummary | artMembers)
	return nil
}

// SetExtras replaces the extras set. Detail lines re-render.
func (l *Netlist) SetExtras(extras []Extra) error {
	if err := validExtras(extras); err != nil {
		return err
	}
	l.spec.Extras = append([]Extra(nil), extras...)
	l.invalidateAll(artDetails)
	return nil
}

// SetShowExtInfo toggles the detail lines under every group.
func (l *Netlist) SetShowExtInfo(on bool) {
	if on == l.showExtInfo {
		return
	}
	l.showExtInfo = on
	l.invalidateAll(artDetails)
}

// SetSortMode selects the ordering applied at the next trigger. Order never
// shows up in cached text, so no group is marked for re-rendering.
func (l *Netlist) SetSortMode(m SortMode) error {
	if m >= sortModeCount {
		return fmt.Errorf("netlist: invalid sort mode %d", m)
	}
	if m != l.mode {
		l.mode = m
		l.sortChanged = true
	}
	return nil
}

func (l *Netlist) SortMode() SortMode { return l.mode }
func (l *Netlist) ShowExtInfo() bool { return l.showExtInfo }
func (l *Netlist) Columns() []Column { return append([]Column(nil), l.spec.Columns...) }
func (l *Netlist) Extras() []Extra { return append([]Extra(nil), l.spec.Extras...) }
func (l *Netlist) Stats() Stats { return l.stats.snapshot() }
func (l *Netlist) Manual() groups.Mapping { return l.reg.mapping() }

func (l *Netlist) invalidateAll(a artifact) {
	for _, g := range l.reg.groups {
		g.invalidate(a)
	}
}

func validColumns(cols []Column) error {
	for _, c := range cols {
		if _, ok := columnDefs[c]; !ok {
			return fmt.Errorf("netlist: invalid column %d", c)
		}
	}
	return nil
}

func validExtras(extras []Extra) error {
	for _, e := range extras {
		if _, ok := extraNames[e]; !ok {
			return fmt.Errorf("netlist: invalid extra %d", e)
		}
	}
	return nil
}

// Header returns the column title line, rebuilt only after a column change.
func (l *Netlist) Header() string {
	if l.headerStale {
		l.header = l.spec.Header()
		l.headerStale = false
	}
	return l.header
}

// Group returns a live group.
func (l *Netlist) Group(id GroupID) (*Group, error) {
	return l.reg.Group(id)
}

// SummaryLine returns the cached one-line summary of a group.
func (l *Netlist) SummaryLine(id GroupID) (string, error) {
	g, err := l.reg.Group(id)
	if err != nil {
		return "", err
	}
	return l.summaryText(g), nil
}

// DetailLines returns the cached extras lines of a group.
func (l *Netlist) DetailLines(id GroupID) ([]string, error) {
	g, err := l.reg.Group(id)
	if err != nil {
		return nil, err
	}
	return l.detailText(g), nil
}

// MemberLines returns the cached per-member lines of a group.
func (l *Netlist) MemberLines(id GroupID) ([]string, error) {
	g, err := l.reg.Group(id)
	if err != nil {
		return nil, err
	}
	return l.memberText(g), nil
}

// Display is the ordered list as of the last trigger. Callers must not modify it.
func (l *Netlist) Display() []*Group {
	return l.display
}

// Len is the number of displayed groups.
func (l *Netlist) Len() int {
	return len(l.display)
}

// CreateGroup assigns addrs to a new manual group. Known entities move at once;
// the rest join when they are first seen.
func (l *Netlist) CreateGroup(name string, addrs []models.MAC) (GroupID, error) {
	if len(addrs) == 0 {
		return "", errors.New("netlist: group needs at least one address")
	}
	id := l.newGroupID()
	l.reg.names[id] = name
	for _, addr := range addrs {
		l.reg.manual[addr] = id
	}
	var errs []error
	for _, addr := range addrs {
		if _, grouped := l.reg.GroupOf(addr); !grouped {
			continue
		}
		n, ok := l.src.Lookup(addr)
		if !ok {
			continue
		}
		if err := l.reg.move(n, id); err != nil {
			errs = append(errs, err)
		}
	}
	l.reg.pruneNames()
	l.log.Info("created group", "group", id, "name", name, "members", len(addrs))
	return id, errors.Join(errs...)
}

// Ungroup dissolves a manual group; its members fall back to automatic grouping.
func (l *Netlist) Ungroup(id GroupID) error {
	if err := l.requireManual(id); err != nil {
		return err
	}
	for addr, gid := range l.reg.manual {
		if gid == id {
			delete(l.reg.manual, addr)
		}
	}
	delete(l.reg.names, id)

	var errs []error
	if g, ok := l.reg.groups[id]; ok {
		for _, n := range g.Members() {
			if err := l.reg.move(n, l.reg.Resolve(n)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	l.log.Info("ungrouped", "group", id)
	return errors.Join(errs...)
}

// RenameGroup sets the explicit name of a manual group. An empty name falls back
// to the derived one.
func (l *Netlist) RenameGroup(id GroupID, name string) error {
	if err := l.requireManual(id); err != nil {
		return err
	}
	l.reg.names[id] = name
	if g, ok := l.reg.groups[id]; ok {
		g.name = name
		l.reg.MarkGroupDirty(g)
	}
	l.log.Info("renamed group", "group", id, "name", name)
	return nil
}

func (l *Netlist) requireManual(id GroupID) error {
	if _, ok := l.reg.names[id]; ok {
		return nil
	}
	if _, ok := l.reg.groups[id]; ok {
		return fmt.Errorf("%w: %s", ErrNotManualGroup, id)
	}
	return &UnknownGroupError{Group: id}
}

func (l *Netlist) newGroupID() GroupID {
	var b [4]byte
	for {
		_, _ = rand.Read(b[:])
		id := GroupID("grp-" + hex.EncodeToString(b[:]))
		if _, taken := l.reg.names[id]; taken {
			continue
		}
		if _, taken := l.reg.groups[id]; taken {
			continue
		}
		return id
	}
}
