package data

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/acheronbot/acheron/internal/biz/repo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordMessage_Counts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.RecordMessage(ctx, "user-a", "Alice"); err != nil {
			t.Fatalf("RecordMessage failed: %v", err)
		}
	}
	if err := store.RecordMessage(ctx, "user-b", "Bob"); err != nil {
		t.Fatalf("RecordMessage failed: %v", err)
	}

	user, err := store.GetUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil {
		t.Fatal("Expected user-a to exist")
	}
	if user.MessageCount != 3 {
		t.Errorf("Expected message count 3, got %d", user.MessageCount)
	}
	if user.PushName != "Alice" {
		t.Errorf("Expected push name Alice, got %q", user.PushName)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalMessages != 4 {
		t.Errorf("Expected total messages 4, got %d", stats.TotalMessages)
	}
	if stats.UsersCount != 2 {
		t.Errorf("Expected 2 users, got %d", stats.UsersCount)
	}
}

func TestRecordMessage_EmptyNameKeepsLast(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordMessage(ctx, "user-a", "Alice"); err != nil {
		t.Fatalf("RecordMessage failed: %v", err)
	}
	if err := store.RecordMessage(ctx, "user-a", ""); err != nil {
		t.Fatalf("RecordMessage failed: %v", err)
	}

	user, _ := store.GetUser(ctx, "user-a")
	if user.PushName != "Alice" {
		t.Errorf("Expected push name to stay Alice, got %q", user.PushName)
	}
}

func TestEnsureUser_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.EnsureUser(ctx, "user-a", "Alice"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if err := store.EnsureUser(ctx, "user-a", "Other"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	user, err := store.GetUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.MessageCount != 0 {
		t.Errorf("Expected message count 0, got %d", user.MessageCount)
	}
	if user.PushName != "Alice" {
		t.Errorf("Expected first push name to win, got %q", user.PushName)
	}

	stats, _ := store.GetStats(ctx)
	if stats.UsersCount != 1 {
		t.Errorf("Expected exactly one user, got %d", stats.UsersCount)
	}
	if stats.TotalMessages != 0 {
		t.Errorf("EnsureUser must not bump total messages, got %d", stats.TotalMessages)
	}
}

func TestGetUser_Absent(t *testing.T) {
	store := newTestStore(t)

	user, err := store.GetUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user != nil {
		t.Errorf("Expected nil for absent user, got %+v", user)
	}
}

func TestGetTopUsers_Ordering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// a: 1 message, b: 3 messages, c: 1 message (created after a)
	store.RecordMessage(ctx, "a", "A")
	for i := 0; i < 3; i++ {
		store.RecordMessage(ctx, "b", "B")
	}
	store.RecordMessage(ctx, "c", "C")

	top, err := store.GetTopUsers(ctx, 2)
	if err != nil {
		t.Fatalf("GetTopUsers failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(top))
	}
	if top[0].JID != "b" {
		t.Errorf("Expected b first, got %s", top[0].JID)
	}
	// Tie between a and c broken by creation order
	if top[1].JID != "a" {
		t.Errorf("Expected a second, got %s", top[1].JID)
	}
}

func TestPrefixOverrides(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	prefix, err := store.GetPrefixFor(ctx, "chat-1")
	if err != nil {
		t.Fatalf("GetPrefixFor failed: %v", err)
	}
	if prefix != "" {
		t.Errorf("Expected no override, got %q", prefix)
	}

	if err := store.SetPrefixFor(ctx, "chat-1", "#"); err != nil {
		t.Fatalf("SetPrefixFor failed: %v", err)
	}
	if err := store.SetPrefixFor(ctx, "chat-1", "$"); err != nil {
		t.Fatalf("SetPrefixFor failed: %v", err)
	}

	prefix, _ = store.GetPrefixFor(ctx, "chat-1")
	if prefix != "$" {
		t.Errorf("Expected last write to win, got %q", prefix)
	}

	if err := store.SetPrefixFor(ctx, repo.GlobalScope, "%"); err != nil {
		t.Fatalf("SetPrefixFor global failed: %v", err)
	}
	prefix, _ = store.GetPrefixFor(ctx, repo.GlobalScope)
	if prefix != "%" {
		t.Errorf("Expected global override %%, got %q", prefix)
	}
}

func TestPruneOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.RecordMessage(ctx, "old", "Old")
	store.RecordMessage(ctx, "fresh", "Fresh")

	// Backdate the old user
	_, err := store.db.Exec(`UPDATE users SET last_seen = ? WHERE jid = 'old'`,
		time.Now().Add(-48*time.Hour).Unix())
	if err != nil {
		t.Fatalf("Backdate failed: %v", err)
	}

	statsBefore, _ := store.GetStats(ctx)

	removed, err := store.PruneOlderThan(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}

	if user, _ := store.GetUser(ctx, "old"); user != nil {
		t.Error("Expected old user to be pruned")
	}
	if user, _ := store.GetUser(ctx, "fresh"); user == nil {
		t.Error("Expected fresh user to survive")
	}

	// Pruning never corrects the aggregate counter
	statsAfter, _ := store.GetStats(ctx)
	if statsAfter.TotalMessages != statsBefore.TotalMessages {
		t.Errorf("Expected total messages unchanged (%d), got %d",
			statsBefore.TotalMessages, statsAfter.TotalMessages)
	}
}

func TestStoreUnavailableAfterClose(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	store.Close()

	if err := store.RecordMessage(context.Background(), "a", "A"); err != repo.ErrStoreUnavailable {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.GetStats(context.Background()); err != repo.ErrStoreUnavailable {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
}

func TestImportLegacyJSON(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dataDir := t.TempDir()
	users := map[string]map[string]any{
		"user-a": {
			"jid":          "user-a",
			"pushName":     "Alice",
			"messageCount": 7,
			"lastSeen":     time.Now().Format(time.RFC3339),
		},
	}
	usersJSON, _ := json.Marshal(users)
	if err := os.WriteFile(filepath.Join(dataDir, "users.json"), usersJSON, 0644); err != nil {
		t.Fatalf("Write users.json failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "stats.json"), []byte(`{"totalMessages": 42}`), 0644); err != nil {
		t.Fatalf("Write stats.json failed: %v", err)
	}

	// Run twice; the import must not duplicate anything
	for i := 0; i < 2; i++ {
		if err := store.ImportLegacyJSON(ctx, dataDir); err != nil {
			t.Fatalf("ImportLegacyJSON failed: %v", err)
		}
	}

	user, err := store.GetUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil || user.MessageCount != 7 {
		t.Fatalf("Expected imported count 7, got %+v", user)
	}

	stats, _ := store.GetStats(ctx)
	if stats.TotalMessages != 42 {
		t.Errorf("Expected total messages 42, got %d", stats.TotalMessages)
	}
	if stats.UsersCount != 1 {
		t.Errorf("Expected one user after repeated import, got %d", stats.UsersCount)
	}
}

func TestImportLegacyJSON_MissingFiles(t *testing.T) {
	store := newTestStore(t)

	if err := store.ImportLegacyJSON(context.Background(), t.TempDir()); err != nil {
		t.Errorf("Expected missing files to be a no-op, got %v", err)
	}
}
