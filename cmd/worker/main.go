// The worker runs the recurring article refresh as a Temporal schedule
// instead of the in-process runtime, for deployments that already have a
// Temporal cluster.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/sethvargo/go-envconfig"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	_ "golang.org/x/crypto/x509roots/fallback"
	"golang.org/x/sync/errgroup"

	"github.com/ArturAbdullinITIS/newsd/internal/migrations"
	"github.com/ArturAbdullinITIS/newsd/internal/newsapi"
	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
	"github.com/ArturAbdullinITIS/newsd/internal/notify"
	"github.com/ArturAbdullinITIS/newsd/internal/schedule"
	"github.com/ArturAbdullinITIS/newsd/internal/sqlite"
	newssync "github.com/ArturAbdullinITIS/newsd/internal/sync"
	newsworker "github.com/ArturAbdullinITIS/newsd/internal/worker"
	"github.com/ArturAbdullinITIS/newsd/logger"
)

type config struct {
	Database         string `env:"DATABASE, required"`
	TemporalHostPort string `env:"TEMPORAL_HOST_PORT, required"`

	NewsAPIKey string `env:"NEWS_API_KEY, required"`
	NewsAPIURL string `env:"NEWS_API_URL, default=https://newsapi.org"`
	WebhookURL string `env:"WEBHOOK_URL"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	l := slog.New(logger.NewContextHandler(slog.NewTextHandler(os.Stdout, nil)))
	slog.SetDefault(l)

	// Connect to the sqlite db
	dbx, err := sqlite.Open(cfg.Database)
	if err != nil {
		log.Fatalf("error opening database: %s", err)
	}
	defer dbx.Close()

	if err := migrations.Run(dbx); err != nil {
		log.Fatalf("error migrating: %s", err)
	}

	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHostPort,
	})
	if err != nil {
		log.Fatalln("Unable to create Temporal client:", err)
	}
	defer c.Close()

	repo := sqlite.New(dbx)
	provider := newsapi.New(cfg.NewsAPIURL, cfg.NewsAPIKey)

	var notifier newsd.Notifier = notify.Log{}
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.WebhookURL)
	}

	syncer := newssync.NewSyncer(repo, repo, provider, notifier)
	w := newsworker.NewWorker(c, syncer, schedule.PermitAll())

	// The refresh schedule is named and replaced wholesale when the policy
	// changes, so the scheduler can follow settings the same way the
	// in-process runtime does.
	scheduler := schedule.NewScheduler(newsworker.NewScheduleRuntime(c))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(worker.InterruptCh())
	})
	g.Go(func() error {
		return scheduler.FollowSettings(gCtx, repo)
	})
	g.Go(func() error {
		<-gCtx.Done()
		w.Stop()

		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("error running worker", "error", err)
		os.Exit(1)
	}
}
