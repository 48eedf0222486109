package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/acheronbot/acheron/internal/conf"
	"github.com/acheronbot/acheron/internal/data"
	"github.com/acheronbot/acheron/internal/infra/feishu"
	"github.com/acheronbot/acheron/internal/infra/moonshot"
	"github.com/acheronbot/acheron/internal/server"
	"github.com/acheronbot/acheron/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Open the store
	store, err := data.NewStore(cfg.Data.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()
	fmt.Printf("[Acheron] Store: %s\n", cfg.Data.DBPath)

	// One-shot import of legacy flat-file data, safe to re-run
	ctx := context.Background()
	if err := store.ImportLegacyJSON(ctx, cfg.Data.Dir); err != nil {
		fmt.Printf("[Acheron] Legacy import failed: %v\n", err)
	}

	// Runtime bot config, reloaded before every event
	loader := conf.NewBotConfigLoader(cfg.Data.ConfigPath)
	if _, err := loader.Load(); err != nil {
		fmt.Printf("[Acheron] Bot config warning: %v\n", err)
	}
	fmt.Printf("[Acheron] Bot config: %s\n", cfg.Data.ConfigPath)

	// Command registry, fixed at startup
	registry := service.NewRegistry()
	service.RegisterBuiltins(registry)

	// Transport client
	feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)

	// Router
	router := service.NewRouter(store, feishuClient, registry, loader)
	router.SetMessageLog(service.NewMessageLog(cfg.Data.LogDir))

	if cfg.Moonshot.APIKey != "" {
		router.SetReplier(moonshot.NewClient(cfg.Moonshot.APIKey, cfg.Moonshot.Model))
		fmt.Println("[Acheron] Moonshot chat replies enabled")
	}

	// Maintenance
	pruner := service.NewPruneRunner(store, loader, cfg.Maintenance.PruneInterval)

	// Server
	srv := server.NewBotServer(feishuClient, router, pruner)

	// Graceful shutdown and owner-requested restart
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case <-srv.RestartRequested():
			fmt.Println("Restart requested, exiting for supervisor relaunch...")
		}
		srv.Stop()
		store.Close()
		os.Exit(0)
	}()

	fmt.Println("⚡ Acheron is online.")
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
