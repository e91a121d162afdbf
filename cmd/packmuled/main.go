package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"packmule/internal/archive"
	"packmule/internal/assemble"
	"packmule/internal/bot"
	"packmule/internal/catalog"
	"packmule/internal/config"
	"packmule/internal/daemon"
	"packmule/internal/fetch"
	"packmule/internal/linkcache"
	"packmule/internal/logging"
	"packmule/internal/notifications"
	"packmule/internal/republish"
	"packmule/internal/telegram"
	"packmule/internal/userstate"
)

const archiveWorkers = 2

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	cat, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog", logging.Error(err))
		os.Exit(1)
	}

	client, err := telegram.New(cfg, logger)
	if err != nil {
		logger.Error("connect to telegram", logging.Error(err))
		os.Exit(1)
	}

	cache := linkcache.NewCache(cfg.LinkCache.Path, logger)
	state := userstate.NewService(cfg.RepublishConfigured())
	notifier := notifications.NewService(cfg)

	fetcher := fetch.NewFetcher(client, logger)
	archiver := archive.NewArchiver(archiveWorkers, logger)
	assembler := assemble.NewAssembler(cfg, client, fetcher, archiver, cat, logger)
	pipeline := republish.NewPipeline(republish.NewHTTPClient(cfg), cache, state, cat, logger)

	dispatcher := bot.NewDispatcher(client, assembler, pipeline, state, notifier, logger)

	d, err := daemon.New(cfg, client, dispatcher, cat, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("packmuled shutting down")
	d.Stop()
}
