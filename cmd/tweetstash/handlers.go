package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/elonfeng/tweetstash/internal/config"
	"github.com/elonfeng/tweetstash/internal/scheduler"
	"github.com/elonfeng/tweetstash/internal/store"
	"github.com/elonfeng/tweetstash/pkg/capture"
	"github.com/elonfeng/tweetstash/pkg/enrich"
	"github.com/elonfeng/tweetstash/pkg/extract"
	"github.com/elonfeng/tweetstash/pkg/server"
	"github.com/elonfeng/tweetstash/pkg/summarize"
	"github.com/elonfeng/tweetstash/pkg/transcribe"
	"github.com/sirupsen/logrus"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return log
}

func openStore(cfg *config.Config) (*store.SQLStore, error) {
	dsn := cfg.Database.Path
	if cfg.Database.Driver == "postgres" {
		dsn = cfg.Database.DSN
	}
	return store.New(cfg.Database.Driver, dsn)
}

func buildOrchestrator(cfg *config.Config, db store.Store, log *logrus.Logger) *enrich.Orchestrator {
	extractor := extract.NewExtractor(cfg.Extract.NitterURL, cfg.Extract.FetchArticles, log)

	var transcriber *transcribe.Transcriber
	if cfg.Transcribe.Enabled {
		transcriber = transcribe.New(
			cfg.Transcribe.WhisperModel,
			cfg.Transcribe.WhisperAPIKey,
			cfg.Transcribe.WhisperBaseURL,
			cfg.Transcribe.CaptionBaseURL,
		)
	}

	summarizer := summarize.New(cfg.AI.Provider, cfg.AI.Model, cfg.AI.APIKey, cfg.AI.BaseURL, log)

	return enrich.New(db, extractor, transcriber, summarizer, log, cfg.Enrich.ParseTimeout())
}

func runCapture(user, url string, wait bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	intake := capture.New(db)
	result, err := intake.CaptureOrFind(context.Background(), user, url)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	if !result.IsNew {
		fmt.Printf("already captured: %s\n", result.TweetID)
		return nil
	}
	fmt.Printf("captured: %s\n", result.TweetID)

	orchestrator := buildOrchestrator(cfg, db, log)
	task := orchestrator.Enqueue(result.TweetID)
	if wait {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Enrich.ParseTimeout())
		defer cancel()
		if err := task.Wait(ctx); err != nil {
			return fmt.Errorf("enrichment: %w", err)
		}
		fmt.Println("enriched")
	}
	return nil
}

func runDigest(user, category string, starred, unread bool, limit int, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	tweets, total, err := db.ListTweets(context.Background(), store.ListOpts{
		UserID:       user,
		CategorySlug: category,
		Starred:      starred,
		UnreadOnly:   unread,
		Limit:        limit,
	})
	if err != nil {
		return fmt.Errorf("list tweets: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tweets)
	}

	if len(tweets) == 0 {
		fmt.Println("no tweets captured yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CAPTURED\tAUTHOR\tTYPE\tCATEGORY\tTLDR")
	for _, t := range tweets {
		tldr := ""
		if t.Summary != nil {
			tldr = t.Summary.TLDR
		}
		categoryName := ""
		if t.Category != nil {
			categoryName = t.Category.Name
		}
		fmt.Fprintf(w, "%s\t@%s\t%s\t%s\t%s\n",
			t.CapturedAt.Format(time.RFC3339), t.AuthorHandle, t.ContentType, categoryName, tldr)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d of %d tweets\n", len(tweets), total)
	return nil
}

func runEnrich(id string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	orchestrator := buildOrchestrator(cfg, db, log)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Enrich.ParseTimeout())
	defer cancel()

	if err := orchestrator.Run(ctx, id); err != nil {
		return fmt.Errorf("enrich %s: %w", id, err)
	}
	fmt.Printf("enriched: %s\n", id)
	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	intake := capture.New(db)
	orchestrator := buildOrchestrator(cfg, db, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sweeper := scheduler.New(db, orchestrator, log,
		cfg.Enrich.ParseSweepInterval(), cfg.Enrich.ParseSweepMinAge())
	go func() {
		if err := sweeper.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("sweeper error")
		}
	}()

	srv := server.New(db, intake, orchestrator, log, port,
		cfg.Server.AuthSecret, cfg.Server.WebhookSecret)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}
