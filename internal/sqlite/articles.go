package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

// InsertArticles inserts the batch inside one transaction with insert-or-ignore
// semantics on the (url, topic) key, so the first-seen version of an article
// wins permanently. Returns the number of rows that were actually new.
func (r Repo) InsertArticles(ctx context.Context, articles []newsd.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	const q = `INSERT OR IGNORE INTO articles (url, topic, title, description, source_name, published_at, image_url)
	VALUES (:url, :topic, :title, :description, :source_name, :published_at, :image_url);`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %s", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, a := range articles {
		res, err := tx.NamedExecContext(ctx, q, a)
		if err != nil {
			return 0, fmt.Errorf("error inserting article: %s", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("error reading rows affected: %s", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing articles: %s", err)
	}
	if inserted > 0 {
		r.articleChanges.bump()
	}

	return inserted, nil
}

func (r Repo) ArticlesForTopics(ctx context.Context, topics []string) ([]newsd.Article, error) {
	if len(topics) == 0 {
		return []newsd.Article{}, nil
	}

	query, args, err := sq.Select("*").
		From("articles").
		Where(sq.Eq{"topic": topics}).
		OrderBy("published_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	articles := []newsd.Article{}
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("error selecting articles: %s", err)
	}

	return articles, nil
}

// ClearArticles bulk-deletes cached articles for the given topics, leaving
// the subscriptions themselves alone.
func (r Repo) ClearArticles(ctx context.Context, topics []string) error {
	if len(topics) == 0 {
		return nil
	}

	query, args, err := sq.Delete("articles").Where(sq.Eq{"topic": topics}).ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error clearing articles: %s", err)
	}
	r.articleChanges.bump()

	return nil
}

// WatchArticles emits the articles for the given topics immediately and again
// after every committed article change, until ctx is done.
func (r Repo) WatchArticles(ctx context.Context, topics []string) <-chan []newsd.Article {
	out := make(chan []newsd.Article, 1)
	id, sig := r.articleChanges.subscribe()

	go func() {
		defer close(out)
		defer r.articleChanges.unsubscribe(id)

		for {
			articles, err := r.ArticlesForTopics(ctx, topics)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("error refreshing watched articles", "error", err)
				}
				return
			}
			sendLatest(out, articles)

			select {
			case <-ctx.Done():
				return
			case <-sig:
			}
		}
	}()

	return out
}
