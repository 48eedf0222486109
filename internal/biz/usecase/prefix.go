package usecase

import (
	"context"

	"github.com/acheronbot/acheron/internal/biz/repo"
)

// fallbackPrefix is used when configuration is entirely unavailable
const fallbackPrefix = "!"

// PrefixUsecase resolves the effective command prefix for an inbound event
type PrefixUsecase struct {
	store repo.StoreRepo
}

// NewPrefixUsecase creates a new prefix usecase
func NewPrefixUsecase(store repo.StoreRepo) *PrefixUsecase {
	return &PrefixUsecase{store: store}
}

// Resolve returns the effective prefix. Precedence, first match wins:
// per-chat override, per-participant override, global override, the
// configured default, then the literal "!" fallback.
// A store error at any tier falls through to the next tier.
func (uc *PrefixUsecase) Resolve(ctx context.Context, chatID, participantID, configDefault string) string {
	if uc.store != nil {
		if p, err := uc.store.GetPrefixFor(ctx, chatID); err == nil && p != "" {
			return p
		}
		if participantID != "" && participantID != chatID {
			if p, err := uc.store.GetPrefixFor(ctx, participantID); err == nil && p != "" {
				return p
			}
		}
		if p, err := uc.store.GetPrefixFor(ctx, repo.GlobalScope); err == nil && p != "" {
			return p
		}
	}

	if configDefault != "" {
		return configDefault
	}
	return fallbackPrefix
}
