package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/synka777/shlerp-cmd/internal/rules"
)

const schema = `
CREATE TABLE IF NOT EXISTS rule_history (
    category TEXT NOT NULL,
    position INTEGER NOT NULL,
    name     TEXT NOT NULL,
    PRIMARY KEY (category, position)
);
`

// SQLiteStore keeps history in a SQLite database, one row per list entry.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (and if needed creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: creating history directory: %v", ErrHistoryUnavailable, err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrHistoryUnavailable, path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: initializing schema: %v", ErrHistoryUnavailable, err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Location implements Store.
func (s *SQLiteStore) Location() string { return s.path }

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (History, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, name FROM rule_history ORDER BY category, position`)
	if err != nil {
		return Empty(), fmt.Errorf("%w: querying history: %v", ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	h := Empty()
	for rows.Next() {
		var category, name string
		if err := rows.Scan(&category, &name); err != nil {
			return Empty(), fmt.Errorf("%w: scanning history: %v", ErrHistoryUnavailable, err)
		}
		cat := rules.Category(category)
		if !cat.Valid() {
			continue
		}
		h.set(cat, append(h.List(cat), name))
	}
	if err := rows.Err(); err != nil {
		return Empty(), fmt.Errorf("%w: reading history: %v", ErrHistoryUnavailable, err)
	}
	return h, nil
}

// Save implements Store. Both lists are replaced in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, h History) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrHistoryUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_history`); err != nil {
		return fmt.Errorf("%w: clearing history: %v", ErrHistoryUnavailable, err)
	}
	for _, cat := range rules.Categories {
		for pos, name := range h.List(cat) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO rule_history (category, position, name) VALUES (?, ?, ?)`,
				string(cat), pos, name); err != nil {
				return fmt.Errorf("%w: inserting %s: %v", ErrHistoryUnavailable, name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing history: %v", ErrHistoryUnavailable, err)
	}
	return nil
}
