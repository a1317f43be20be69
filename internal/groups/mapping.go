package groups

import (
	"gonetlist/internal/models"
	"sort"
)

// Mapping is the persisted manual grouping: which address belongs to which group,
// and what each group is called.
type Mapping struct {
	Assign map[models.MAC]string
	Names  map[string]string
}

// NewMapping returns an empty, writable mapping.
func NewMapping() Mapping {
	return Mapping{
		Assign: make(map[models.MAC]string),
		Names:  make(map[string]string),
	}
}

// Clone returns a deep copy.
func (m Mapping) Clone() Mapping {
	out := NewMapping()
	for addr, id := range m.Assign {
		out.Assign[addr] = id
	}
	for id, name := range m.Names {
		out.Names[id] = name
	}
	return out
}

// IDs returns every group id that has members or a name, sorted.
func (m Mapping) IDs() []string {
	seen := make(map[string]struct{}, len(m.Names))
	for _, id := range m.Assign {
		seen[id] = struct{}{}
	}
	for id := range m.Names {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Members returns the addresses assigned to id in ascending order.
func (m Mapping) Members(id string) []models.MAC {
	var out []models.MAC
	for addr, gid := range m.Assign {
		if gid == id {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Compare(out[j]) < 0
	})
	return out
}
