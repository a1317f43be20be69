package netlist

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SortMode selects the display order. Every mode is a total order: ties fall
// back to the group key address.
type SortMode uint8

const (
	SortAutofit SortMode = iota
	SortRecent
	SortType
	SortChannel
	SortFirst
	SortFirstDesc
	SortLast
	SortLastDesc
	SortBSSID
	SortSSID
	SortPackets
	SortPacketsDesc
	sortModeCount
)

var sortModeNames = [...]string{
	SortAutofit:     "autofit",
	SortRecent:      "recent",
	SortType:        "type",
	SortChannel:     "channel",
	SortFirst:       "first",
	SortFirstDesc:   "first_desc",
	SortLast:        "last",
	SortLastDesc:    "last_desc",
	SortBSSID:       "bssid",
	SortSSID:        "ssid",
	SortPackets:     "packets",
	SortPacketsDesc: "packets_desc",
}

func (m SortMode) String() string {
	if m >= sortModeCount {
		return fmt.Sprintf("SortMode(%d)", m)
	}
	return sortModeNames[m]
}

// Next cycles to the following mode, wrapping after packets_desc.
func (m SortMode) Next() SortMode {
	return (m + 1) % sortModeCount
}

// ParseSortMode accepts the mode names produced by String.
func ParseSortMode(s string) (SortMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range sortModeNames {
		if name == s {
			return SortMode(i), nil
		}
	}
	return SortAutofit, fmt.Errorf("unknown sort mode %q", s)
}

// Autofit thresholds. Tiers are taken only when the display is resorted, so a
// group whose activity lapses keeps its place until some change or a sort
// mode switch triggers the next resort.
const (
	activeWindow   = 3 * time.Second
	decayingWindow = 10 * time.Second
)

const (
	tierActive uint8 = iota
	tierDecaying
	tierIdle
)

func activityTier(g *Group, now time.Time) uint8 {
	age := now.Sub(g.meta.LastTime)
	switch {
	case age <= activeWindow && g.meta.NewPackets > 0:
		return tierActive
	case age <= decayingWindow:
		return tierDecaying
	default:
		return tierIdle
	}
}

// compareFunc orders two groups, ignoring the key address tie-break.
type compareFunc func(a, b *Group) int

var comparators = [...]compareFunc{
	SortAutofit: func(a, b *Group) int {
		if c := cmp.Compare(a.tier, b.tier); c != 0 {
			return c
		}
		if a.tier != tierIdle {
			if c := cmp.Compare(b.meta.Packets(), a.meta.Packets()); c != 0 {
				return c
			}
		}
		return b.meta.LastTime.Compare(a.meta.LastTime)
	},
	SortRecent: func(a, b *Group) int {
		return b.meta.LastTime.Compare(a.meta.LastTime)
	},
	SortType: func(a, b *Group) int {
		return cmp.Compare(a.meta.Type, b.meta.Type)
	},
	SortChannel: func(a, b *Group) int {
		return cmp.Compare(a.meta.Channel, b.meta.Channel)
	},
	SortFirst: func(a, b *Group) int {
		return a.meta.FirstTime.Compare(b.meta.FirstTime)
	},
	SortFirstDesc: func(a, b *Group) int {
		return b.meta.FirstTime.Compare(a.meta.FirstTime)
	},
	SortLast: func(a, b *Group) int {
		return a.meta.LastTime.Compare(b.meta.LastTime)
	},
	SortLastDesc: func(a, b *Group) int {
		return b.meta.LastTime.Compare(a.meta.LastTime)
	},
	SortBSSID: func(a, b *Group) int { return 0 },
	SortSSID: func(a, b *Group) int {
		return strings.Compare(a.displayName, b.displayName)
	},
	SortPackets: func(a, b *Group) int {
		return cmp.Compare(a.meta.Packets(), b.meta.Packets())
	},
	SortPacketsDesc: func(a, b *Group) int {
		return cmp.Compare(b.meta.Packets(), a.meta.Packets())
	},
}

// sortGroups orders list in place under mode.
func sortGroups(list []*Group, mode SortMode, now time.Time) {
	if mode == SortAutofit {
		for _, g := range list {
			g.tier = activityTier(g, now)
		}
	}
	compare := comparators[mode]
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if c := compare(a, b); c != 0 {
			return c < 0
		}
		if c := a.meta.Addr.Compare(b.meta.Addr); c != 0 {
			return c < 0
		}
		return a.id < b.id
	})
}
