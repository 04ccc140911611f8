package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArturAbdullinITIS/newsd/internal/migrations"
	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

func newTestRepo(t *testing.T) Repo {
	t.Helper()

	dbx, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	require.NoError(t, migrations.Run(dbx))

	return New(dbx)
}

func article(url, topic, title string) newsd.Article {
	return newsd.Article{
		URL:         url,
		Topic:       topic,
		Title:       title,
		SourceName:  "wire",
		PublishedAt: 1700000000000,
	}
}

func TestAddSubscription_Idempotent(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	require.NoError(t, repo.AddSubscription(ctx, "go"))
	require.NoError(t, repo.AddSubscription(ctx, "go"))
	require.NoError(t, repo.AddSubscription(ctx, "rust"))

	topics, err := repo.Subscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, topics)
}

func TestRemoveSubscription_UnknownTopic(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	err := repo.RemoveSubscription(ctx, "never-added")
	require.ErrorIs(t, err, newsd.ErrNotFound)
}

func TestRemoveSubscription_CascadesArticles(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	require.NoError(t, repo.AddSubscription(ctx, "go"))
	require.NoError(t, repo.AddSubscription(ctx, "rust"))

	_, err := repo.InsertArticles(ctx, []newsd.Article{
		article("https://example.com/1", "go", "one"),
		article("https://example.com/2", "go", "two"),
		article("https://example.com/3", "rust", "three"),
	})
	require.NoError(t, err)

	require.NoError(t, repo.RemoveSubscription(ctx, "go"))

	topics, err := repo.Subscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, topics)

	// No orphans: every article under the removed topic is gone too.
	articles, err := repo.ArticlesForTopics(ctx, []string{"go", "rust"})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "rust", articles[0].Topic)
}

func TestInsertArticles_IgnoresDuplicates(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	require.NoError(t, repo.AddSubscription(ctx, "go"))

	n, err := repo.InsertArticles(ctx, []newsd.Article{article("https://example.com/1", "go", "first version")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Same (url, topic) again: no new row, first-seen fields retained.
	n, err = repo.InsertArticles(ctx, []newsd.Article{article("https://example.com/1", "go", "second version")})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	articles, err := repo.ArticlesForTopics(ctx, []string{"go"})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "first version", articles[0].Title)
}

func TestInsertArticles_SameURLDifferentTopics(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	require.NoError(t, repo.AddSubscription(ctx, "go"))
	require.NoError(t, repo.AddSubscription(ctx, "rust"))

	n, err := repo.InsertArticles(ctx, []newsd.Article{
		article("https://example.com/1", "go", "one"),
		article("https://example.com/1", "rust", "one"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInsertArticles_TwoCycles(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	require.NoError(t, repo.AddSubscription(ctx, "go"))

	n, err := repo.InsertArticles(ctx, []newsd.Article{
		article("u1", "go", "a"),
		article("u2", "go", "b"),
		article("u3", "go", "c"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Second cycle overlaps on u2/u3 and brings u4.
	n, err = repo.InsertArticles(ctx, []newsd.Article{
		article("u2", "go", "b"),
		article("u3", "go", "c"),
		article("u4", "go", "d"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	articles, err := repo.ArticlesForTopics(ctx, []string{"go"})
	require.NoError(t, err)

	urls := make([]string, 0, len(articles))
	for _, a := range articles {
		urls = append(urls, a.URL)
	}
	assert.ElementsMatch(t, []string{"u1", "u2", "u3", "u4"}, urls)
}

func TestClearArticles_LeavesSubscriptions(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	require.NoError(t, repo.AddSubscription(ctx, "go"))
	require.NoError(t, repo.AddSubscription(ctx, "rust"))
	_, err := repo.InsertArticles(ctx, []newsd.Article{
		article("u1", "go", "a"),
		article("u2", "rust", "b"),
	})
	require.NoError(t, err)

	require.NoError(t, repo.ClearArticles(ctx, []string{"go"}))

	articles, err := repo.ArticlesForTopics(ctx, []string{"go", "rust"})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "rust", articles[0].Topic)

	topics, err := repo.Subscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, topics)
}

func TestArticlesForTopics_EmptySet(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	articles, err := repo.ArticlesForTopics(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestWatchSubscriptions_EmitsOnChange(t *testing.T) {
	repo := newTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := repo.WatchSubscriptions(ctx)

	// Initial snapshot arrives without any mutation.
	assert.Equal(t, []string{}, recv(t, updates))

	require.NoError(t, repo.AddSubscription(ctx, "go"))
	assert.Equal(t, []string{"go"}, recv(t, updates))

	require.NoError(t, repo.RemoveSubscription(ctx, "go"))
	assert.Equal(t, []string{}, recv(t, updates))
}

func TestWatchArticles_EmitsOnInsert(t *testing.T) {
	repo := newTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, repo.AddSubscription(ctx, "go"))
	updates := repo.WatchArticles(ctx, []string{"go"})
	require.Empty(t, recv(t, updates))

	_, err := repo.InsertArticles(ctx, []newsd.Article{article("u1", "go", "a")})
	require.NoError(t, err)

	articles := recv(t, updates)
	require.Len(t, articles, 1)
	assert.Equal(t, "u1", articles[0].URL)
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		panic("unreachable")
	}
}
