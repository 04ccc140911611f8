// Package sync holds the orchestrator that refreshes cached articles for
// every subscribed topic.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

type Syncer struct {
	repo     newsd.Repository
	settings newsd.SettingsService
	provider newsd.Provider
	notifier newsd.Notifier
}

func NewSyncer(repo newsd.Repository, settings newsd.SettingsService, provider newsd.Provider, notifier newsd.Notifier) *Syncer {
	return &Syncer{
		repo:     repo,
		settings: settings,
		provider: provider,
		notifier: notifier,
	}
}

// SyncTopic fetches the topic from the provider and merges the results into
// the cache. Reports whether any previously-unseen article was inserted.
//
// A failure is local to the topic: it is logged and surfaces as "no update",
// never as an error. That covers the store as well as the provider, a topic
// unsubscribed mid-cycle makes its insert fail and the rest must carry on.
// Cancellation is the exception and is re-raised.
func (s *Syncer) SyncTopic(ctx context.Context, topic, language string) (bool, error) {
	articles, err := s.provider.Fetch(ctx, topic, language)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		slog.Error("error fetching topic", "topic", topic, "error", err)
		return false, nil
	}

	inserted, err := s.repo.InsertArticles(ctx, articles)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		slog.Error("error merging articles", "topic", topic, "error", err)
		return false, nil
	}

	return inserted > 0, nil
}

// SyncAll reads the subscription list once, fans out one fetch per topic, and
// waits for all of them before returning the topics that gained articles.
//
// One topic's transient failure must never suppress updates for the others,
// so per-topic errors stop at SyncTopic; the only thing that tears the whole
// cycle down is cancellation.
func (s *Syncer) SyncAll(ctx context.Context) ([]string, error) {
	topics, err := s.repo.Subscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing subscriptions: %s", err)
	}
	if len(topics) == 0 {
		return []string{}, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading settings: %s", err)
	}
	language := string(settings.Language)

	var (
		mu      gosync.Mutex
		updated []string
	)
	g, gCtx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		topic := topic
		g.Go(func() error {
			ok, err := s.SyncTopic(gCtx, topic, language)
			if err != nil {
				return err
			}
			if ok {
				mu.Lock()
				updated = append(updated, topic)
				mu.Unlock()
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(updated)
	if updated == nil {
		updated = []string{}
	}

	return updated, nil
}

// Cycle runs one full refresh: sync every subscription, then fire the
// notifier if anything is new and the user has notifications turned on.
//
// Notification delivery is fire-and-forget; a failed send never fails the
// cycle.
func (s *Syncer) Cycle(ctx context.Context) ([]string, error) {
	updated, err := s.SyncAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return updated, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading settings: %s", err)
	}
	if !settings.NotificationsEnabled {
		return updated, nil
	}

	if err := s.notifier.NotifyNewArticles(ctx, updated); err != nil {
		slog.Error("error notifying about new articles", "topics", updated, "error", err)
	}

	return updated, nil
}
