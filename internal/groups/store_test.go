package groups

import (
	"context"
	"gonetlist/internal/models"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustMAC(t *testing.T, s string) models.MAC {
	t.Helper()
	m, err := models.ParseMAC(s)
	if err != nil {
		t.Fatalf("ParseMAC(%q): %v", s, err)
	}
	return m
}

func sampleMapping(t *testing.T) Mapping {
	m := NewMapping()
	m.Assign[mustMAC(t, "00:11:22:33:44:55")] = "grp-0000aaaa"
	m.Assign[mustMAC(t, "00:11:22:33:44:66")] = "grp-0000aaaa"
	m.Assign[mustMAC(t, "de:ad:be:ef:00:01")] = "grp-0000bbbb"
	m.Names["grp-0000aaaa"] = "office"
	return m
}

func equalMapping(a, b Mapping) bool {
	if len(a.Assign) != len(b.Assign) || len(a.Names) != len(b.Names) {
		return false
	}
	for addr, id := range a.Assign {
		if b.Assign[addr] != id {
			return false
		}
	}
	for id, name := range a.Names {
		if got, ok := b.Names[id]; !ok || got != name {
			return false
		}
	}
	return true
}

func TestStoreRoundTrip(t *testing.T) {
	tests := []struct {
		backend string
		file    string
	}{
		{"toml", "groups.toml"},
		{"sqlite", "groups.db"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), tt.file)

			s, err := Open(ctx, tt.backend, path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()

			empty, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load() on fresh store error = %v", err)
			}
			if len(empty.Assign) != 0 || len(empty.Names) != 0 {
				t.Errorf("fresh store loaded %+v, want empty", empty)
			}

			want := sampleMapping(t)
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !equalMapping(got, want) {
				t.Errorf("Load() = %+v, want %+v", got, want)
			}

			// a second save replaces rather than merges
			next := NewMapping()
			next.Assign[mustMAC(t, "00:11:22:33:44:55")] = "grp-0000cccc"
			if err := s.Save(ctx, next); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err = s.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !equalMapping(got, next) {
				t.Errorf("after replace Load() = %+v, want %+v", got, next)
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), "etcd", "x"); err == nil {
		t.Error("Open(etcd) error = nil, want error")
	}
}

func TestTOMLStoreRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown key",
			content: "[[group]]\nid = \"grp-1\"\ncolour = \"red\"\n",
			wantErr: "unknown keys",
		},
		{
			name:    "missing id",
			content: "[[group]]\nname = \"x\"\n",
			wantErr: "without id",
		},
		{
			name:    "bad address",
			content: "[[group]]\nid = \"grp-1\"\nmembers = [\"not-a-mac\"]\n",
			wantErr: "grp-1",
		},
		{
			name: "address in two groups",
			content: "[[group]]\nid = \"grp-1\"\nmembers = [\"00:11:22:33:44:55\"]\n" +
				"[[group]]\nid = \"grp-2\"\nmembers = [\"00:11:22:33:44:55\"]\n",
			wantErr: "both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "groups.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := NewTOMLStore(path).Load(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMappingMembersAndIDs(t *testing.T) {
	m := sampleMapping(t)
	m.Names["grp-0000dddd"] = "empty"

	ids := m.IDs()
	want := []string{"grp-0000aaaa", "grp-0000bbbb", "grp-0000dddd"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("IDs() = %v, want %v", ids, want)
	}

	members := m.Members("grp-0000aaaa")
	if len(members) != 2 || members[0].Compare(members[1]) >= 0 {
		t.Errorf("Members() = %v, want two ascending addresses", members)
	}

	c := m.Clone()
	c.Names["grp-0000aaaa"] = "changed"
	if m.Names["grp-0000aaaa"] != "office" {
		t.Error("Clone() shares the names map")
	}
}
