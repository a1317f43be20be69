package groups

import (
	"context"
	"database/sql"
	"fmt"
	"gonetlist/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the mapping in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	// modernc.org/sqlite registers as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("groups: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("groups: %s: %w", p, err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS members (
			addr TEXT PRIMARY KEY,
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_members_group ON members(group_id);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("groups: migrate: %w", err)
		}
	}
	return nil
}

// Load reads every group and member.
func (s *SQLiteStore) Load(ctx context.Context) (Mapping, error) {
	m := NewMapping()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM groups`)
	if err != nil {
		return Mapping{}, fmt.Errorf("groups: %w", err)
	}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return Mapping{}, fmt.Errorf("groups: %w", err)
		}
		if name != "" {
			m.Names[id] = name
		}
	}
	if err := rows.Close(); err != nil {
		return Mapping{}, fmt.Errorf("groups: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT addr, group_id FROM members`)
	if err != nil {
		return Mapping{}, fmt.Errorf("groups: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw, id string
		if err := rows.Scan(&raw, &id); err != nil {
			return Mapping{}, fmt.Errorf("groups: %w", err)
		}
		addr, err := models.ParseMAC(raw)
		if err != nil {
			return Mapping{}, fmt.Errorf("groups: member of %s: %w", id, err)
		}
		m.Assign[addr] = id
	}
	return m, rows.Err()
}

// Save replaces the stored mapping in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, m Mapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM members`); err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM groups`); err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	for _, id := range m.IDs() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO groups(id, name) VALUES(?, ?)`, id, m.Names[id]); err != nil {
			return fmt.Errorf("groups: %w", err)
		}
	}
	for addr, id := range m.Assign {
		if _, err := tx.ExecContext(ctx, `INSERT INTO members(addr, group_id) VALUES(?, ?)`, addr.String(), id); err != nil {
			return fmt.Errorf("groups: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
