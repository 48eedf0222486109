package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/acheronbot/acheron/internal/biz/domain"
	"github.com/acheronbot/acheron/internal/biz/repo"
)

// Mock implementations

type mockPrefixStore struct {
	prefixes map[string]string
	err      error
}

func (m *mockPrefixStore) RecordMessage(ctx context.Context, jid, pushName string) error { return nil }
func (m *mockPrefixStore) EnsureUser(ctx context.Context, jid, pushName string) error    { return nil }
func (m *mockPrefixStore) GetUser(ctx context.Context, jid string) (*domain.User, error) {
	return nil, nil
}
func (m *mockPrefixStore) GetStats(ctx context.Context) (*domain.Stats, error) { return nil, nil }
func (m *mockPrefixStore) GetTopUsers(ctx context.Context, limit int) ([]*domain.User, error) {
	return nil, nil
}
func (m *mockPrefixStore) SetPrefixFor(ctx context.Context, scope, prefix string) error {
	m.prefixes[scope] = prefix
	return nil
}
func (m *mockPrefixStore) GetPrefixFor(ctx context.Context, scope string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prefixes[scope], nil
}
func (m *mockPrefixStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
func (m *mockPrefixStore) Close() error { return nil }

// Tests

func TestResolve_Precedence(t *testing.T) {
	store := &mockPrefixStore{prefixes: map[string]string{
		"chat-c":          "#",
		repo.GlobalScope:  "$",
	}}
	uc := NewPrefixUsecase(store)
	ctx := context.Background()

	if got := uc.Resolve(ctx, "chat-c", "user-p", "!"); got != "#" {
		t.Errorf("Expected chat override #, got %q", got)
	}

	delete(store.prefixes, "chat-c")
	if got := uc.Resolve(ctx, "chat-c", "user-p", "!"); got != "$" {
		t.Errorf("Expected global override $, got %q", got)
	}

	delete(store.prefixes, repo.GlobalScope)
	if got := uc.Resolve(ctx, "chat-c", "user-p", "!"); got != "!" {
		t.Errorf("Expected static default !, got %q", got)
	}
}

func TestResolve_ParticipantOverride(t *testing.T) {
	store := &mockPrefixStore{prefixes: map[string]string{
		"user-p": "&",
	}}
	uc := NewPrefixUsecase(store)

	if got := uc.Resolve(context.Background(), "chat-c", "user-p", "!"); got != "&" {
		t.Errorf("Expected participant override &, got %q", got)
	}
}

func TestResolve_Fallback(t *testing.T) {
	uc := NewPrefixUsecase(&mockPrefixStore{prefixes: map[string]string{}})

	if got := uc.Resolve(context.Background(), "chat-c", "", ""); got != "!" {
		t.Errorf("Expected literal fallback !, got %q", got)
	}
}

func TestResolve_StoreErrorFallsThrough(t *testing.T) {
	store := &mockPrefixStore{
		prefixes: map[string]string{"chat-c": "#"},
		err:      errors.New("db closed"),
	}
	uc := NewPrefixUsecase(store)

	if got := uc.Resolve(context.Background(), "chat-c", "", "!"); got != "!" {
		t.Errorf("Expected fall through to default on store error, got %q", got)
	}
}
