package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/acheronbot/acheron/internal/biz/repo"
)

// legacyUser mirrors the flat-file user record written by older deployments
type legacyUser struct {
	JID          string `json:"jid"`
	PushName     string `json:"pushName"`
	MessageCount int    `json:"messageCount"`
	LastSeen     string `json:"lastSeen"`
}

// legacyStats mirrors the flat-file aggregate counter
type legacyStats struct {
	TotalMessages int `json:"totalMessages"`
}

// ImportLegacyJSON imports users.json and stats.json from dataDir if they
// exist. Records are upserted keyed by JID, so repeated runs do not
// duplicate anything. Missing files are not an error.
func (s *Store) ImportLegacyJSON(ctx context.Context, dataDir string) error {
	if s.db == nil {
		return repo.ErrStoreUnavailable
	}

	usersPath := filepath.Join(dataDir, "users.json")
	if data, err := os.ReadFile(usersPath); err == nil {
		var users map[string]legacyUser
		if err := json.Unmarshal(data, &users); err != nil {
			return fmt.Errorf("parse %s: %w", usersPath, err)
		}
		for jid, u := range users {
			name := u.PushName
			if name == "" {
				name = "Unknown"
			}
			lastSeen := time.Now()
			if ts, err := time.Parse(time.RFC3339, u.LastSeen); err == nil {
				lastSeen = ts
			}
			_, err := s.db.ExecContext(ctx, `
				INSERT OR REPLACE INTO users (jid, push_name, message_count, last_seen)
				VALUES (?, ?, ?, ?)
			`, jid, name, u.MessageCount, lastSeen.Unix())
			if err != nil {
				return fmt.Errorf("import user %s: %w", jid, err)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", usersPath, err)
	}

	statsPath := filepath.Join(dataDir, "stats.json")
	if data, err := os.ReadFile(statsPath); err == nil {
		var stats legacyStats
		if err := json.Unmarshal(data, &stats); err != nil {
			return fmt.Errorf("parse %s: %w", statsPath, err)
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO stats (key, value) VALUES ('totalMessages', ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, fmt.Sprintf("%d", stats.TotalMessages))
		if err != nil {
			return fmt.Errorf("import stats: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", statsPath, err)
	}

	return nil
}
