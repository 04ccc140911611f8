// Newsd keeps a local, queryable cache of articles for the user's topic
// subscriptions.
//
// It serves the subscription/article/settings API and runs the recurring
// background refresh in-process.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sethvargo/go-envconfig"
	_ "golang.org/x/crypto/x509roots/fallback"
	"golang.org/x/sync/errgroup"

	"github.com/ArturAbdullinITIS/newsd/internal/migrations"
	"github.com/ArturAbdullinITIS/newsd/internal/newsapi"
	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
	"github.com/ArturAbdullinITIS/newsd/internal/notify"
	"github.com/ArturAbdullinITIS/newsd/internal/schedule"
	"github.com/ArturAbdullinITIS/newsd/internal/sqlite"
	newssync "github.com/ArturAbdullinITIS/newsd/internal/sync"
	"github.com/ArturAbdullinITIS/newsd/internal/web"
	"github.com/ArturAbdullinITIS/newsd/logger"
)

type config struct {
	Port     int    `env:"PORT, default=4444"`
	Database string `env:"DATABASE, required"`

	NewsAPIKey string `env:"NEWS_API_KEY, required"`
	NewsAPIURL string `env:"NEWS_API_URL, default=https://newsapi.org"`

	// Where to POST "new articles" notifications; logs locally when empty.
	WebhookURL string `env:"WEBHOOK_URL"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	// Determine which logger format to use
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if cfg.LoggerFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	l := slog.New(logger.NewContextHandler(handler))
	slog.SetDefault(l)

	// Start the application
	if err := run(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	slog.Info("running", "port", cfg.Port, "database", cfg.Database)

	// Connect to the db
	dbx, err := sqlite.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("error opening database: %s", err)
	}
	defer dbx.Close()

	// Migrate, always
	if err := migrations.Run(dbx); err != nil {
		return fmt.Errorf("error migrating: %s", err)
	}

	repo := sqlite.New(dbx)
	provider := newsapi.New(cfg.NewsAPIURL, cfg.NewsAPIKey)

	var notifier newsd.Notifier = notify.Log{}
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.WebhookURL)
	}

	syncer := newssync.NewSyncer(repo, repo, provider, notifier)

	// The refresh job lives in-process; its policy follows the settings.
	runtime := schedule.NewRuntime(ctx, schedule.PermitAll())
	runtime.Register(schedule.RefreshJobName, func(ctx context.Context) error {
		_, err := syncer.Cycle(ctx)
		return err
	})
	scheduler := schedule.NewScheduler(runtime)

	s := web.NewServer(cfg.Port, repo, repo, syncer)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Start the server
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error listening: %s", err)
		}

		return nil
	})
	g.Go(func() error {
		// Block from shutting down until the group is canceled
		<-gCtx.Done()

		downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(downCtx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}

		return nil
	})
	g.Go(func() error {
		// Keep the refresh schedule in step with the settings
		if err := scheduler.FollowSettings(gCtx, repo); err != nil {
			return fmt.Errorf("error following settings: %s", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("error running: %s", err)
	}

	return nil
}
