package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/weapon"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kicks (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    player_name  TEXT    NOT NULL,
    category     TEXT    NOT NULL,
    kicked_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS kicks_player_idx ON kicks (player_name);
`

// SQLiteLedger keeps kick history in a local SQLite file.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (and creates if needed) the database at path.
// ":memory:" gives a throwaway ledger.
func NewSQLiteLedger(ctx context.Context, path string) (*SQLiteLedger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create ledger directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, stmt := range []string{`PRAGMA busy_timeout = 5000;`, sqliteSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to prepare ledger %s: %w", path, err)
		}
	}

	logrus.Infof("kick ledger opened at %s", path)
	return &SQLiteLedger{db: db}, nil
}

// Append records a kick and returns the player's lifetime kick count.
func (l *SQLiteLedger) Append(ctx context.Context, player string, category weapon.Category, at time.Time) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to record kick of %s: %w", player, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kicks (player_name, category, kicked_at_ms) VALUES (?, ?, ?)`,
		player, category.String(), at.UTC().UnixMilli(),
	); err != nil {
		return 0, fmt.Errorf("failed to record kick of %s: %w", player, err)
	}

	var total int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kicks WHERE player_name = ?`, player,
	).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count kicks of %s: %w", player, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to record kick of %s: %w", player, err)
	}
	return total, nil
}

// History returns the kick times of a player per category.
func (l *SQLiteLedger) History(ctx context.Context, player string) (map[weapon.Category][]time.Time, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT category, kicked_at_ms FROM kicks WHERE player_name = ? ORDER BY kicked_at_ms, id`, player)
	if err != nil {
		return nil, fmt.Errorf("failed to get kicks of %s: %w", player, err)
	}
	defer rows.Close()

	history := make(map[weapon.Category][]time.Time)
	for rows.Next() {
		var (
			name string
			ms   int64
		)
		if err := rows.Scan(&name, &ms); err != nil {
			return nil, fmt.Errorf("failed to read kicks of %s: %w", player, err)
		}
		category, err := weapon.ParseCategory(name)
		if err != nil {
			continue
		}
		history[category] = append(history[category], time.UnixMilli(ms).UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read kicks of %s: %w", player, err)
	}
	return history, nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
