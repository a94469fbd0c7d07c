package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/qbitremote/qbitremote/internal/api"
	"github.com/qbitremote/qbitremote/internal/bot"
	"github.com/qbitremote/qbitremote/internal/config"
	"github.com/qbitremote/qbitremote/internal/controllers"
	"github.com/qbitremote/qbitremote/internal/models"
	"github.com/qbitremote/qbitremote/internal/scheduler"
	"github.com/qbitremote/qbitremote/internal/services/prowlarr"
	"github.com/qbitremote/qbitremote/internal/services/qbittorrent"
	"github.com/qbitremote/qbitremote/internal/services/tmdb"
	"github.com/qbitremote/qbitremote/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting qbitremote")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Load blacklist
	blacklist, err := utils.LoadBlacklist(cfg.BlacklistFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load blacklist, continuing without it")
		blacklist = &utils.Blacklist{}
	} else {
		logger.Info("Blacklist loaded")
	}

	// 5. Initialize services
	prowlarrClient, err := prowlarr.NewClient(cfg, blacklist, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Prowlarr client: %w", err)
	}
	logger.Info("Prowlarr client initialized")

	qbClient, err := qbittorrent.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize qBittorrent client: %w", err)
	}
	logger.Info("qBittorrent client initialized")

	tmdbClient, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDB client: %w", err)
	}
	logger.Info("TMDB client initialized")

	// 6. Initialize controllers
	searchCtrl := controllers.NewSearchController(prowlarrClient, qbClient, logger)
	downloadCtrl := controllers.NewDownloadController(db, qbClient, cfg, logger)
	ruleCtrl := controllers.NewRuleController(qbClient, tmdbClient, cfg, logger)
	cleanupCtrl := controllers.NewCleanupController(db, time.Duration(cfg.RetentionHours)*time.Hour, logger)
	logger.Info("Controllers initialized")

	// 7. Initialize Telegram bot
	tgBot, err := bot.New(cfg, db, searchCtrl, downloadCtrl, ruleCtrl, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	botErrChan := make(chan error, 1)
	go func() {
		if err := tgBot.Run(ctx); err != nil && err != context.Canceled {
			botErrChan <- err
		}
	}()

	// 8. Initialize scheduler
	sched := scheduler.NewScheduler(downloadCtrl, cleanupCtrl, tgBot, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 9. Initialize HTTP server
	server := api.NewServer(cfg, db, downloadCtrl, logger)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 10. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("qbitremote is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case err := <-botErrChan:
		return fmt.Errorf("bot error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("qbitremote stopped")
	return nil
}
