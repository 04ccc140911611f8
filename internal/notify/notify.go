// Package notify delivers "new articles" notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

var (
	_ newsd.Notifier = (*Webhook)(nil)
	_ newsd.Notifier = (*Log)(nil)
)

// Webhook posts the updated topic list to a configured URL.
type Webhook struct {
	url  string
	http *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:  url,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

type webhookPayload struct {
	Topics []string `json:"topics"`
	Count  int      `json:"count"`
}

// NotifyNewArticles posts the topics that gained articles. Transient delivery
// failures are retried with backoff; the final error is the caller's to log,
// a cycle never fails because of it.
func (w *Webhook) NotifyNewArticles(ctx context.Context, topics []string) error {
	body, err := json.Marshal(webhookPayload{Topics: topics, Count: len(topics)})
	if err != nil {
		return fmt.Errorf("error encoding notification: %s", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("error building notification request: %s", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("error delivering notification: %w", err)
	}

	return nil
}

// Log is the notifier used when no webhook is configured.
type Log struct{}

func (Log) NotifyNewArticles(ctx context.Context, topics []string) error {
	slog.InfoContext(ctx, "new articles available", "topics", topics)
	return nil
}
