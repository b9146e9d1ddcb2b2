package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedworks/refinery/app/api"
	"github.com/feedworks/refinery/app/cfg"
	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/extract"
	"github.com/feedworks/refinery/app/feed"
	"github.com/feedworks/refinery/app/feedfinder"
	"github.com/feedworks/refinery/app/jobs"
	"github.com/feedworks/refinery/app/queue"
	"github.com/feedworks/refinery/app/render"
	"github.com/feedworks/refinery/app/urlutil"
	"github.com/feedworks/refinery/app/websub"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting refinery", "version", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	blocklist, err := urlutil.LoadBlocklist(appCfg.BlockedHostsFile)
	if err != nil {
		log.Fatalf("Failed to load blocked hosts: %v", err)
	}

	// Repositories
	entryRepo := database.NewEntryRepository(db)
	feedRepo := database.NewFeedRepository(db)
	userRepo := database.NewUserRepository(db)
	subscriptionRepo := database.NewSubscriptionRepository(db)
	importRepo := database.NewImportRepository(db)
	taggingRepo := database.NewTaggingRepository(db)

	// Collaborators
	httpClient := &http.Client{Timeout: 60 * time.Second}
	extractor := extract.NewExtractor(httpClient, appCfg.UserAgent)
	finder := feedfinder.NewFinder(httpClient, appCfg.UserAgent)
	renderer := render.NewTemplateRenderer()
	subscriber := websub.NewHubSubscriber(httpClient, appCfg.PushHubURL, appCfg.SecretKeyBase, appCfg.UserAgent)

	// Job transport and handlers
	q := queue.New(appCfg.WorkerCount)
	feedService := feed.NewService(feedRepo, taggingRepo, q)

	entryImage := jobs.NewEntryImageJob(entryRepo, feedRepo, q)
	findImage := jobs.NewFindImageJob(httpClient, appCfg.UserAgent, q)
	twitterLinkImage := jobs.NewTwitterLinkImageJob(httpClient, appCfg.UserAgent, q)
	harvestLinks := jobs.NewHarvestLinksJob(entryRepo, extractor, renderer, blocklist, q)
	feedImporter := jobs.NewFeedImporterJob(importRepo, userRepo, subscriptionRepo,
		feedService, finder, appCfg.StrictResolutionErrors)
	refresher := jobs.NewTwitterFeedRefresherJob(feedRepo, userRepo, subscriptionRepo, q)
	webSubSubscribe := jobs.NewWebSubSubscribeJob(feedRepo, subscriber)

	q.Register(queue.KindEntryImage, entryImage.Execute)
	q.Register(queue.KindFindImage, findImage.Execute)
	q.Register(queue.KindTwitterLinkImage, twitterLinkImage.Execute)
	q.Register(queue.KindHarvestLinks, harvestLinks.Execute)
	q.Register(queue.KindFeedImporter, feedImporter.Execute)
	q.Register(queue.KindTwitterFeedRefresher, refresher.Execute)
	q.Register(queue.KindWebSubSubscribe, webSubSubscribe.Execute)

	q.Start()
	defer q.Stop()
	slog.Info("Job workers started", "worker_count", appCfg.WorkerCount)

	// Periodic twitter refresh sweep
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go runSweep(sweepCtx, q, time.Duration(appCfg.SweepInterval)*time.Second)

	// HTTP server
	handler := api.NewHandler(feedRepo, userRepo, refresher, appCfg.SecretKeyBase, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// runSweep periodically submits the broadcast refresh sweep.
func runSweep(ctx context.Context, submitter queue.Submitter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := submitter.Submit(ctx, queue.Job{
				Kind:  queue.KindTwitterFeedRefresher,
				Queue: queue.QueueDefault,
				Retry: false,
			})
			if err != nil {
				slog.Error("Failed to submit refresh sweep", "error", err)
			}
		}
	}
}
