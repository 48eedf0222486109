package repo

import (
	"context"
	"errors"
	"time"

	"github.com/acheronbot/acheron/internal/biz/domain"
)

// ErrStoreUnavailable is returned when the store is used before
// initialization or after it has been closed.
var ErrStoreUnavailable = errors.New("store not initialized")

// GlobalScope is the reserved scope key for the bot-wide prefix override.
const GlobalScope = "global"

// StoreRepo is the persistence interface for users, aggregate stats
// and prefix overrides (SQLite)
type StoreRepo interface {
	// RecordMessage creates the user if absent, then increments the user's
	// message count, updates push name and last seen, and increments the
	// global total-messages counter
	RecordMessage(ctx context.Context, jid, pushName string) error

	// EnsureUser creates the user if absent (count 0); no-op otherwise
	EnsureUser(ctx context.Context, jid, pushName string) error

	// GetUser gets a user by JID; returns (nil, nil) when absent
	GetUser(ctx context.Context, jid string) (*domain.User, error)

	// GetStats returns the aggregate counters
	GetStats(ctx context.Context) (*domain.Stats, error)

	// GetTopUsers lists up to limit users ordered by message count descending
	GetTopUsers(ctx context.Context, limit int) ([]*domain.User, error)

	// SetPrefixFor sets the prefix override for a scope key
	SetPrefixFor(ctx context.Context, scope, prefix string) error

	// GetPrefixFor gets the prefix override for a scope key;
	// returns "" when no override exists
	GetPrefixFor(ctx context.Context, scope string) (string, error)

	// PruneOlderThan removes users whose last seen precedes cutoff and
	// returns the number removed. The total-messages counter is unchanged.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close closes the underlying database
	Close() error
}
