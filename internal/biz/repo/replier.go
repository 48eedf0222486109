package repo

import (
	"context"

	"github.com/acheronbot/acheron/internal/biz/domain"
)

// ReplierRepo produces a conversational reply for non-command input.
// Implementations may call an external model; the pattern-based
// generator remains the fallback when a call fails.
type ReplierRepo interface {
	Reply(ctx context.Context, text string, mood domain.Mood) (string, error)
}
