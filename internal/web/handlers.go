package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	newsv1 "github.com/ArturAbdullinITIS/newsd/api/news/v1"
	newserrs "github.com/ArturAbdullinITIS/newsd/internal/errors"
	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) error {
	topics, err := s.repo.Subscriptions(r.Context())
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusOK, newsv1.SubscriptionsResponse{Topics: topics})
}

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) error {
	body, err := DecodeValid[newsv1.CreateSubscriptionRequest](r.Body)
	if err != nil {
		return newserrs.E(http.StatusBadRequest, err)
	}

	if err := s.repo.AddSubscription(r.Context(), body.Topic); err != nil {
		return err
	}

	return WriteJSON(w, http.StatusCreated, newsv1.SubscriptionsResponse{Topics: []string{body.Topic}})
}

func (s *Server) deleteSubscription(w http.ResponseWriter, r *http.Request) error {
	topic := mux.Vars(r)["topic"]

	err := s.repo.RemoveSubscription(r.Context(), topic)
	if errors.Is(err, newsd.ErrNotFound) {
		return newserrs.E(http.StatusNotFound, err)
	}
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)

	return nil
}

// topicsParam reads the ?topics= query as a comma separated list.
func topicsParam(r *http.Request) []string {
	raw := r.URL.Query().Get("topics")
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			topics = append(topics, p)
		}
	}

	return topics
}

func toAPIArticles(articles []newsd.Article) []newsv1.Article {
	out := make([]newsv1.Article, 0, len(articles))
	for _, a := range articles {
		out = append(out, newsv1.Article{
			URL:         a.URL,
			Topic:       a.Topic,
			Title:       a.Title,
			Description: a.Description,
			SourceName:  a.SourceName,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.ImageURL,
		})
	}

	return out
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) error {
	articles, err := s.repo.ArticlesForTopics(r.Context(), topicsParam(r))
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusOK, newsv1.ArticlesResponse{Articles: toAPIArticles(articles)})
}

func (s *Server) clearArticles(w http.ResponseWriter, r *http.Request) error {
	topics := topicsParam(r)
	if len(topics) == 0 {
		return newserrs.E(http.StatusBadRequest, "topics query parameter is required")
	}

	if err := s.repo.ClearArticles(r.Context(), topics); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)

	return nil
}

// watchArticles streams article snapshots for the given topics as
// server-sent events: the current set immediately, then one event per
// committed change.
func (s *Server) watchArticles(w http.ResponseWriter, r *http.Request) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return newserrs.E(http.StatusInternalServerError, "streaming unsupported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates := s.repo.WatchArticles(r.Context(), topicsParam(r))
	for articles := range updates {
		payload, err := json.Marshal(newsv1.ArticlesResponse{Articles: toAPIArticles(articles)})
		if err != nil {
			return fmt.Errorf("error encoding event: %s", err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return nil // client went away
		}
		flusher.Flush()
	}

	return nil
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) error {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusOK, toAPISettings(settings))
}

func toAPISettings(s newsd.Settings) newsv1.Settings {
	return newsv1.Settings{
		Language:             string(s.Language),
		IntervalMinutes:      int(s.Interval),
		NotificationsEnabled: s.NotificationsEnabled,
		WifiOnly:             s.WifiOnly,
	}
}

// updateSettings applies each present field through its own setter, so every
// change is persisted and re-emitted to watchers individually.
func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) error {
	body, err := DecodeValid[newsv1.UpdateSettingsRequest](r.Body)
	if err != nil {
		return newserrs.E(http.StatusBadRequest, err)
	}

	ctx := r.Context()
	if body.Language != nil {
		if err := s.settings.SetLanguage(ctx, newsd.Language(*body.Language)); err != nil {
			return newserrs.E(http.StatusBadRequest, err)
		}
	}
	if body.IntervalMinutes != nil {
		if err := s.settings.SetInterval(ctx, newsd.Interval(*body.IntervalMinutes)); err != nil {
			return newserrs.E(http.StatusBadRequest, err)
		}
	}
	if body.NotificationsEnabled != nil {
		if err := s.settings.SetNotificationsEnabled(ctx, *body.NotificationsEnabled); err != nil {
			return err
		}
	}
	if body.WifiOnly != nil {
		if err := s.settings.SetWifiOnly(ctx, *body.WifiOnly); err != nil {
			return err
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusOK, toAPISettings(settings))
}

// refresh runs one sync cycle right now, outside the recurring schedule.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) error {
	updated, err := s.syncer.Cycle(r.Context())
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusOK, newsv1.RefreshResponse{UpdatedTopics: updated})
}
