package netlist

// summaryText returns the group's one-line summary, recomputing it only when stale.
func (l *Netlist) summaryText(g *Group) string {
	if g.cache.stale&artSummary == 0 {
		l.stats.cacheHits.Add(1)
		return g.cache.line
	}
	g.cache.line = l.spec.Line(&g.meta, g.displayName)
	g.cache.stale &^= artSummary
	l.stats.renders.Add(1)
	return g.cache.line
}

// detailText returns the extras lines. They are empty while extended info is off.
func (l *Netlist) detailText(g *Group) []string {
	if g.cache.stale&artDetails == 0 {
		l.stats.cacheHits.Add(1)
		return g.cache.details
	}
	g.cache.details = nil
	if l.showExtInfo {
		g.cache.details = l.spec.Details(&g.meta)
	}
	g.cache.stale &^= artDetails
	l.stats.renders.Add(1)
	return g.cache.details
}

// memberText returns one line per member in address order.
func (l *Netlist) memberText(g *Group) []string {
	if g.cache.stale&artMembers == 0 {
		l.stats.cacheHits.Add(1)
		return g.cache.members
	}
	members := g.Members()
	g.cache.members = make([]string, len(members))
	for i, n := range members {
		g.cache.members[i] = l.spec.Line(n, "- "+n.NaturalName())
	}
	g.cache.stale &^= artMembers
	l.stats.renders.Add(1)
	return g.cache.members
}

// refresh brings every stale artifact up to date and records the row count the
// group occupies.
func (l *Netlist) refresh(g *Group) {
	if g.cache.stale&artSummary != 0 {
		l.summaryText(g)
	}
	if g.cache.stale&artDetails != 0 {
		l.detailText(g)
	}
	if g.cache.stale&artMembers != 0 {
		l.memberText(g)
	}
	g.nlines = l.rowCount(g)
}

func (l *Netlist) rowCount(g *Group) int {
	n := 1 + len(g.cache.details)
	if g.expanded {
		n += len(g.members)
	}
	return n
}

// groupLines is every row the group occupies, summary first.
func (l *Netlist) groupLines(g *Group) []string {
	out := make([]string, 0, g.nlines)
	out = append(out, l.summaryText(g))
	out = append(out, l.detailText(g)...)
	if g.expanded {
		out = append(out, l.memberText(g)...)
	}
	return out
}
