package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/acheronbot/acheron/internal/biz/repo"
	"github.com/acheronbot/acheron/internal/conf"
)

// PruneRunner periodically removes stale user records.
// It runs on its own timer, independent of the event loop; pruning only
// deletes rows stale by last-seen, never rows the router just touched.
type PruneRunner struct {
	store  repo.StoreRepo
	loader *conf.BotConfigLoader

	interval time.Duration
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewPruneRunner creates a new prune runner
func NewPruneRunner(store repo.StoreRepo, loader *conf.BotConfigLoader, interval time.Duration) *PruneRunner {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &PruneRunner{
		store:    store,
		loader:   loader,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the prune runner
func (r *PruneRunner) Start() {
	if r.running {
		return
	}
	r.running = true
	r.wg.Add(1)
	go r.loop()
	fmt.Printf("[PruneRunner] Started with interval %v\n", r.interval)
}

// Stop stops the prune runner
func (r *PruneRunner) Stop() {
	if !r.running {
		return
	}
	r.running = false
	close(r.stopCh)
	r.wg.Wait()
	fmt.Println("[PruneRunner] Stopped")
}

func (r *PruneRunner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(context.Background())
		case <-r.stopCh:
			return
		}
	}
}

// RunOnce prunes users last seen before the configured retention window.
// Errors are logged, never fatal.
func (r *PruneRunner) RunOnce(ctx context.Context) {
	cfg, err := r.loader.Load()
	if err != nil {
		fmt.Printf("[PruneRunner] Config unreadable, using defaults: %v\n", err)
	}

	cutoff := time.Now().Add(-cfg.RetentionWindow())
	removed, err := r.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		fmt.Printf("[PruneRunner] Prune error: %v\n", err)
		return
	}
	fmt.Printf("[PruneRunner] Pruned %d stale user(s)\n", removed)
}
