package groups

import (
	"context"
	"fmt"
	"strings"
)

// Store persists a Mapping between sessions.
type Store interface {
	Load(ctx context.Context) (Mapping, error)
	Save(ctx context.Context, m Mapping) error
	Close() error
}

// Open returns the store for backend ("toml" or "sqlite") at path.
func Open(ctx context.Context, backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "toml":
		return NewTOMLStore(path), nil
	case "sqlite":
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown groups backend %q", backend)
	}
}
