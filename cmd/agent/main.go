package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/clipmark/clipmark-agent/internal/api"
	"github.com/clipmark/clipmark-agent/internal/clip"
	"github.com/clipmark/clipmark-agent/internal/config"
	"github.com/clipmark/clipmark-agent/internal/db"
	"github.com/clipmark/clipmark-agent/internal/extractor"
	"github.com/clipmark/clipmark-agent/internal/logging"
	"github.com/clipmark/clipmark-agent/internal/player"
	"github.com/clipmark/clipmark-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	// A missing .env is fine; env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel(), cfg.LogFile())
	logger.Info("starting clipmark agent",
		"version", config.Version,
		"data_dir", cfg.DataDir(),
		"extractor_url", cfg.ExtractorURL(),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	authToken, err := ensureAuthToken(database)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   CLIPMARK AGENT v0.1.0                   ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	store := clip.NewStore(database, logging.WithComponent(logger, "store"))
	cache := clip.NewCache(store, logging.WithComponent(logger, "cache"))

	extractorClient := extractor.NewHTTPClient(cfg.ExtractorURL(), logging.WithComponent(logger, "extractor"))
	playerClient := player.NewHTTPClient(cfg.PlayerURL(), logging.WithComponent(logger, "player"))

	queue := clip.NewQueue(extractorClient, logging.WithComponent(logger, "queue"))
	manager := clip.NewManager(store, cache, queue, playerClient, cfg.FormatID(), logging.WithComponent(logger, "manager"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Service:   manager,
		Tokens:    database,
		Logger:    logger,
		StartTime: startTime,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		queue.Start(gctx)
		return nil
	})

	g.Go(func() error {
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Service: manager,
			Logger:  logging.WithComponent(logger, "tray"),
			OnQuit: quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	// The single teardown notification: exactly one flush attempt before the
	// process goes away, regardless of how many shutdown signals raced here.
	teardownCtx, teardownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	manager.Teardown(teardownCtx)
	teardownCancel()

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	if err := g.Wait(); err != nil {
		logger.Error("shutdown with error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(database *db.DB) (string, error) {
	ctx := context.Background()

	existing, ok, err := database.Get(ctx, api.AuthTokenKey)
	if err == nil && ok && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := database.Set(ctx, api.AuthTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}
