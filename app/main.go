package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bytenews/newsgenie/app/api"
	"github.com/bytenews/newsgenie/app/cfg"
	"github.com/bytenews/newsgenie/app/database"
	"github.com/bytenews/newsgenie/app/extract"
	"github.com/bytenews/newsgenie/app/feed"
	"github.com/bytenews/newsgenie/app/speech"
	"github.com/bytenews/newsgenie/app/summary"
	"github.com/bytenews/newsgenie/app/tasks"
)

func main() {
	// Optional .env file; real environment takes precedence.
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting NewsGenie server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	sourceCache := feed.NewSourceCache(appCfg.SourcesDir)
	if err := sourceCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", sourceCache.GetSourceCount())

	articleRepo := database.NewArticleRepo(db)
	categoryRepo := database.NewCategoryRepo(db)

	provider, err := summary.NewProvider(appCfg.GeminiAPIKey, appCfg.GeminiModel, appCfg.CohereAPIKey, appCfg.CohereModel)
	if err != nil {
		slog.Error("Failed to configure summarization", "error", err)
		os.Exit(1)
	}
	slog.Info("Summarization provider configured", "provider", provider.Name())

	summarizer := summary.NewService(provider, appCfg.SummaryRetries,
		time.Duration(appCfg.SummaryBackoff)*time.Second, appCfg.SummaryRatePerMin)

	httpClient := &http.Client{}
	parser := feed.NewParser()
	extractor := extract.NewExtractor(httpClient, appCfg.UserAgent,
		time.Duration(appCfg.ExtractTimeout)*time.Second)
	synthesizer := speech.NewSynthesizer(appCfg.MediaDir)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(sourceCache, articleRepo, categoryRepo, httpClient, parser,
		extractor, summarizer, synthesizer, appCfg.UserAgent, appCfg.EntryLimit,
		time.Duration(appCfg.PolitenessDelay)*time.Second,
		time.Duration(appCfg.SchedulerInterval)*time.Second, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(articleRepo, categoryRepo, sourceCache, summarizer, synthesizer, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey, appCfg.MediaURL, appCfg.MediaDir)

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
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("NewsGenie server started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
