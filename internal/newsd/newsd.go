package newsd

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("resource not found")

type (
	// Subscription is a topic the user follows. The topic string doubles as
	// the search query sent to the article provider and as the partition key
	// for cached articles.
	Subscription struct {
		Topic string `db:"topic"`
	}

	// Article is one cached article under a single topic. The same url seen
	// under two topics is two distinct rows.
	Article struct {
		URL         string  `db:"url"`
		Topic       string  `db:"topic"`
		Title       string  `db:"title"`
		Description string  `db:"description"`
		SourceName  string  `db:"source_name"`
		PublishedAt int64   `db:"published_at"` // epoch milliseconds
		ImageURL    *string `db:"image_url"`
	}

	// Repository is the cache store holding subscriptions and their articles.
	Repository interface {
		Subscriptions(ctx context.Context) ([]string, error)
		AddSubscription(ctx context.Context, topic string) error
		RemoveSubscription(ctx context.Context, topic string) error
		WatchSubscriptions(ctx context.Context) <-chan []string

		// InsertArticles reports how many of the given rows were actually
		// new for their (url, topic) keys.
		InsertArticles(ctx context.Context, articles []Article) (int, error)
		ArticlesForTopics(ctx context.Context, topics []string) ([]Article, error)
		WatchArticles(ctx context.Context, topics []string) <-chan []Article
		ClearArticles(ctx context.Context, topics []string) error
	}

	// Provider fetches articles for a topic from the remote article service.
	Provider interface {
		Fetch(ctx context.Context, topic, language string) ([]Article, error)
	}

	// Notifier is told about topics that gained new articles during a cycle.
	Notifier interface {
		NotifyNewArticles(ctx context.Context, topics []string) error
	}
)
