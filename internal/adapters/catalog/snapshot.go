// Package catalog serves a bundled, read-only CATMAT snapshot stored as a
// SQLite file.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"precificador/internal/domain"
	"precificador/internal/logging"
)

// loadTimeout bounds the one-time read of the snapshot file.
const loadTimeout = 30 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS catmat_items (
  code        TEXT PRIMARY KEY,
  name        TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  category    TEXT NOT NULL DEFAULT '',
  unit        TEXT NOT NULL DEFAULT ''
);`

// Snapshot is loaded on first use and immutable afterwards, so concurrent
// readers need no locking once load has returned.
type Snapshot struct {
	path   string
	logger *zap.Logger

	once  sync.Once
	items map[string]domain.RegistryRecord
	err   error
}

// NewSnapshot returns a handle; nothing is read until the first Lookup.
// An empty path yields an empty snapshot.
func NewSnapshot(path string, logger *zap.Logger) *Snapshot {
	return &Snapshot{path: strings.TrimSpace(path), logger: logging.OrNop(logger).Named("catalog")}
}

// Lookup returns the snapshot record for code and whether it was present.
func (s *Snapshot) Lookup(ctx context.Context, code string) (domain.RegistryRecord, bool, error) {
	if s == nil {
		return domain.RegistryRecord{}, false, nil
	}
	s.once.Do(func() {
		// Shared by every caller; detached from the first caller's deadline.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		s.items, s.err = load(loadCtx, s.path)
		if s.err != nil {
			s.logger.Error("catalog.load_failed", zap.String("path", s.path), zap.Error(s.err))
			return
		}
		s.logger.Info("catalog.loaded", zap.String("path", s.path), zap.Int("items", len(s.items)))
	})
	if s.err != nil {
		return domain.RegistryRecord{}, false, s.err
	}
	rec, ok := s.items[strings.TrimSpace(code)]
	return rec, ok, nil
}

// Len reports the number of loaded items; it triggers the load.
func (s *Snapshot) Len(ctx context.Context) (int, error) {
	if _, _, err := s.Lookup(ctx, ""); err != nil {
		return 0, err
	}
	if s != nil {
		s.logger.Debug("catalog.size", zap.Int("items", len(s.items)))
		return len(s.items), nil
	}
	return 0, nil
}

func load(ctx context.Context, path string) (map[string]domain.RegistryRecord, error) {
	items := map[string]domain.RegistryRecord{}
	if path == "" {
		return items, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("catalog snapshot: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog snapshot: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT code, name, description, category, unit FROM catmat_items`)
	if err != nil {
		return nil, fmt.Errorf("query catalog snapshot: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r domain.RegistryRecord
		if err := rows.Scan(&r.Code, &r.Name, &r.Description, &r.Category, &r.Unit); err != nil {
			return nil, err
		}
		r.Found = true
		r.Source = "snapshot"
		r.Validation = domain.ValidationAuthoritative
		items[r.Code] = r
	}
	return items, rows.Err()
}

// Build writes records into a snapshot file, replacing rows with the same code.
func Build(ctx context.Context, path string, records []domain.RegistryRecord) (int, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return 0, errors.New("missing snapshot path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, err
	}
	db, err := sql.Open("sqlite", p)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return 0, fmt.Errorf("init snapshot schema: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO catmat_items (code, name, description, category, unit)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(code) DO UPDATE SET
  name = excluded.name,
  description = excluded.description,
  category = excluded.category,
  unit = excluded.unit`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, r := range records {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, code, r.Name, r.Description, r.Category, r.Unit); err != nil {
			return n, fmt.Errorf("insert %s: %w", code, err)
		}
		n++
	}
	return n, tx.Commit()
}
