package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

func (r Repo) Subscriptions(ctx context.Context) ([]string, error) {
	const q = `SELECT topic FROM subscriptions ORDER BY topic;`

	topics := []string{}
	if err := r.db.SelectContext(ctx, &topics, q); err != nil {
		return nil, fmt.Errorf("error selecting subscriptions: %s", err)
	}

	return topics, nil
}

func (r Repo) AddSubscription(ctx context.Context, topic string) error {
	const q = `INSERT OR IGNORE INTO subscriptions (topic) VALUES (?);`

	if _, err := r.db.ExecContext(ctx, q, topic); err != nil {
		return fmt.Errorf("error adding subscription: %s", err)
	}
	r.subChanges.bump()

	return nil
}

// RemoveSubscription deletes the subscription along with every article cached
// under it. The cascade is a foreign key on the articles table, so the whole
// removal is a single statement.
func (r Repo) RemoveSubscription(ctx context.Context, topic string) error {
	const q = `DELETE FROM subscriptions WHERE topic = ?;`

	res, err := r.db.ExecContext(ctx, q, topic)
	if err != nil {
		return fmt.Errorf("error removing subscription: %s", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return newsd.ErrNotFound
	}
	r.subChanges.bump()
	r.articleChanges.bump()

	return nil
}

// WatchSubscriptions emits the current topic list immediately and again after
// every committed subscription change, until ctx is done.
func (r Repo) WatchSubscriptions(ctx context.Context) <-chan []string {
	out := make(chan []string, 1)
	id, sig := r.subChanges.subscribe()

	go func() {
		defer close(out)
		defer r.subChanges.unsubscribe(id)

		for {
			topics, err := r.Subscriptions(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("error refreshing watched subscriptions", "error", err)
				}
				return
			}
			sendLatest(out, topics)

			select {
			case <-ctx.Done():
				return
			case <-sig:
			}
		}
	}()

	return out
}

// sendLatest replaces any undelivered value so a slow receiver always sees
// the most recent snapshot.
func sendLatest[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
