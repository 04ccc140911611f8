// Package newsapi is the client for the remote article provider's
// "everything" search endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

var _ newsd.Provider = (*Client)(nil)

// Represents a response from an article search.
type searchResp struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		URL         string  `json:"url"`
		URLToImage  *string `json:"urlToImage"`
		PublishedAt string  `json:"publishedAt"`
	} `json:"articles"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	// Fetches for the same (topic, language) inside the TTL are served from
	// here, so a manual refresh racing the scheduled one doesn't hit the
	// provider twice.
	cache *expirable.LRU[string, []newsd.Article]
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   expirable.NewLRU[string, []newsd.Article](128, nil, time.Minute),
	}
}

func (c *Client) Fetch(ctx context.Context, topic, language string) ([]newsd.Article, error) {
	cacheKey := topic + "\x00" + language
	if articles, ok := c.cache.Get(cacheKey); ok {
		return articles, nil
	}

	q := url.Values{}
	q.Set("q", topic)
	q.Set("language", language)
	q.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %s", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error searching articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body searchResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	articles := make([]newsd.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.URL == "" {
			continue
		}
		articles = append(articles, newsd.Article{
			URL:         a.URL,
			Topic:       topic,
			Title:       sanitize(a.Title),
			Description: sanitize(a.Description),
			SourceName:  a.Source.Name,
			PublishedAt: toEpochMillis(a.PublishedAt),
			ImageURL:    a.URLToImage,
		})
	}

	c.cache.Add(cacheKey, articles)

	return articles, nil
}

// toEpochMillis converts the provider's ISO 8601 timestamp; anything
// unparsable falls back to the current time.
func toEpochMillis(iso string) int64 {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Now().UnixMilli()
	}

	return t.UnixMilli()
}

var stripPolicy = bluemonday.StrictPolicy()

// Removes all html tags from the string, usually a description.
//
// Also limits the length of the string so there's not a massive chunk of text being output.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = stripPolicy.Sanitize(s)
	if len(s) > 2048 {
		s = s[:2048]
	}

	return s
}
