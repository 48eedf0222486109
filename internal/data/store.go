package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/acheronbot/acheron/internal/biz/domain"
	"github.com/acheronbot/acheron/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// Store implements the Store repository on SQLite
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the bot database
func NewStore(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create tables
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			jid TEXT PRIMARY KEY,
			push_name TEXT NOT NULL DEFAULT '',
			message_count INTEGER NOT NULL DEFAULT 0,
			last_seen INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS stats (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS prefixes (
			jid TEXT PRIMARY KEY,
			prefix TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create prefixes table: %w", err)
	}

	// Create index
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_users_last_seen ON users(last_seen)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	// Seed the total-messages counter
	_, err = db.Exec(`
		INSERT OR IGNORE INTO stats (key, value) VALUES ('totalMessages', '0')
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed stats: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordMessage records one message for a user and bumps the global counter
func (s *Store) RecordMessage(ctx context.Context, jid, pushName string) error {
	if s.db == nil {
		return repo.ErrStoreUnavailable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	var existingName string
	err = tx.QueryRowContext(ctx, `SELECT push_name FROM users WHERE jid = ?`, jid).Scan(&existingName)
	switch {
	case err == sql.ErrNoRows:
		if pushName == "" {
			pushName = "Unknown"
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (jid, push_name, message_count, last_seen)
			VALUES (?, ?, 1, ?)
		`, jid, pushName, now)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to query user: %w", err)
	default:
		// An empty new name keeps the last observed one
		name := pushName
		if name == "" {
			name = existingName
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE users SET message_count = message_count + 1, push_name = ?, last_seen = ?
			WHERE jid = ?
		`, name, now, jid)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE stats SET value = CAST(value AS INTEGER) + 1 WHERE key = 'totalMessages'
	`)
	if err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// EnsureUser creates a user record if absent (message count 0)
func (s *Store) EnsureUser(ctx context.Context, jid, pushName string) error {
	if s.db == nil {
		return repo.ErrStoreUnavailable
	}
	if pushName == "" {
		pushName = "Unknown"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (jid, push_name, message_count, last_seen)
		VALUES (?, ?, 0, ?)
	`, jid, pushName, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// GetUser gets a user by JID
func (s *Store) GetUser(ctx context.Context, jid string) (*domain.User, error) {
	if s.db == nil {
		return nil, repo.ErrStoreUnavailable
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT jid, push_name, message_count, last_seen FROM users WHERE jid = ?
	`, jid)

	var user domain.User
	var lastSeen int64
	err := row.Scan(&user.JID, &user.PushName, &user.MessageCount, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.LastSeen = time.Unix(lastSeen, 0)
	return &user, nil
}

// GetStats returns the aggregate counters
func (s *Store) GetStats(ctx context.Context) (*domain.Stats, error) {
	if s.db == nil {
		return nil, repo.ErrStoreUnavailable
	}

	var stats domain.Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT CAST(value AS INTEGER) FROM stats WHERE key = 'totalMessages'
	`)
	if err := row.Scan(&stats.TotalMessages); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`)
	if err := row.Scan(&stats.UsersCount); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	return &stats, nil
}

// GetTopUsers lists users by message count descending, ties broken by
// creation order
func (s *Store) GetTopUsers(ctx context.Context, limit int) ([]*domain.User, error) {
	if s.db == nil {
		return nil, repo.ErrStoreUnavailable
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT jid, push_name, message_count, last_seen
		FROM users
		ORDER BY message_count DESC, rowid ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		var lastSeen int64
		if err := rows.Scan(&user.JID, &user.PushName, &user.MessageCount, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.LastSeen = time.Unix(lastSeen, 0)
		users = append(users, &user)
	}

	return users, rows.Err()
}

// SetPrefixFor sets the prefix override for a scope key
func (s *Store) SetPrefixFor(ctx context.Context, scope, prefix string) error {
	if s.db == nil {
		return repo.ErrStoreUnavailable
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefixes (jid, prefix) VALUES (?, ?)
		ON CONFLICT(jid) DO UPDATE SET prefix = excluded.prefix
	`, scope, prefix)
	if err != nil {
		return fmt.Errorf("failed to set prefix: %w", err)
	}
	return nil
}

// GetPrefixFor gets the prefix override for a scope key ("" when absent)
func (s *Store) GetPrefixFor(ctx context.Context, scope string) (string, error) {
	if s.db == nil {
		return "", repo.ErrStoreUnavailable
	}

	var prefix string
	err := s.db.QueryRowContext(ctx, `SELECT prefix FROM prefixes WHERE jid = ?`, scope).Scan(&prefix)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query prefix: %w", err)
	}
	return prefix, nil
}

// PruneOlderThan removes user records last seen before cutoff.
// The total-messages counter is deliberately left untouched, so it keeps
// counting messages from pruned users.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, repo.ErrStoreUnavailable
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM users WHERE last_seen < ?
	`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune users: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return repo.ErrStoreUnavailable
	}
	err := s.db.Close()
	s.db = nil
	return err
}
