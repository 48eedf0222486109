package repo

import "context"

// PresenceState is a transport presence signal
type PresenceState string

const (
	PresenceComposing PresenceState = "composing"
	PresenceAvailable PresenceState = "available"
)

// MessageRepo is the outbound transport interface
type MessageRepo interface {
	// SendText sends a text message to a chat, optionally quoting the
	// message identified by quotedMsgID (empty string for no quote)
	SendText(ctx context.Context, chatID, text, quotedMsgID string) error

	// SetPresence publishes a presence signal to a chat (best effort,
	// cosmetic; callers swallow errors)
	SetPresence(ctx context.Context, chatID string, state PresenceState) error
}
