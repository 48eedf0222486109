package domain

import "time"

// User represents a chat participant the bot has observed
type User struct {
	JID          string
	PushName     string
	MessageCount int
	LastSeen     time.Time
}

// Stats represents aggregate counters across all users
type Stats struct {
	TotalMessages int
	UsersCount    int
}

// Mood selects the tone of generated offline replies
type Mood string

const (
	MoodCalm    Mood = "calm"
	MoodCold    Mood = "cold"
	MoodCryptic Mood = "cryptic"
)

// Moods lists the known moods in display order
func Moods() []Mood {
	return []Mood{MoodCalm, MoodCold, MoodCryptic}
}

// IsValid checks if the mood is one of the known values
func (m Mood) IsValid() bool {
	switch m {
	case MoodCalm, MoodCold, MoodCryptic:
		return true
	}
	return false
}
