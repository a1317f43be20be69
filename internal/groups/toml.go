package groups

import (
	"context"
	"errors"
	"fmt"
	"gonetlist/internal/models"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type tomlFile struct {
	Group []tomlGroup `toml:"group"`
}

type tomlGroup struct {
	ID      string   `toml:"id"`
	Name    string   `toml:"name,omitempty"`
	Members []string `toml:"members"`
}

// TOMLStore keeps the mapping in a TOML file, one [[group]] table per group.
type TOMLStore struct {
	path string
}

// NewTOMLStore returns a store backed by path. The file is created on first Save.
func NewTOMLStore(path string) *TOMLStore {
	return &TOMLStore{path: path}
}

// Load reads the file. A missing file is an empty mapping.
func (s *TOMLStore) Load(_ context.Context) (Mapping, error) {
	var f tomlFile
	md, err := toml.DecodeFile(s.path, &f)
	if errors.Is(err, fs.ErrNotExist) {
		return NewMapping(), nil
	}
	if err != nil {
		return Mapping{}, fmt.Errorf("groups: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return Mapping{}, fmt.Errorf("groups: unknown keys in %s: %s", s.path, strings.Join(keys, ", "))
	}

	m := NewMapping()
	for _, g := range f.Group {
		if g.ID == "" {
			return Mapping{}, fmt.Errorf("groups: group without id in %s", s.path)
		}
		if g.Name != "" {
			m.Names[g.ID] = g.Name
		}
		for _, raw := range g.Members {
			addr, err := models.ParseMAC(raw)
			if err != nil {
				return Mapping{}, fmt.Errorf("groups: group %s: %w", g.ID, err)
			}
			if prev, dup := m.Assign[addr]; dup && prev != g.ID {
				return Mapping{}, fmt.Errorf("groups: %s is in both %s and %s", addr, prev, g.ID)
			}
			m.Assign[addr] = g.ID
		}
	}
	return m, nil
}

// Save replaces the file atomically.
func (s *TOMLStore) Save(_ context.Context, m Mapping) error {
	var f tomlFile
	for _, id := range m.IDs() {
		g := tomlGroup{ID: id, Name: m.Names[id], Members: []string{}}
		for _, addr := range m.Members(id) {
			g.Members = append(g.Members, addr.String())
		}
		f.Group = append(f.Group, g)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".groups-*.toml")
	if err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(f); err != nil {
		tmp.Close()
		return fmt.Errorf("groups: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	return nil
}

func (s *TOMLStore) Close() error { return nil }
