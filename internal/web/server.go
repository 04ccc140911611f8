// Package web serves the public HTTP API: subscriptions, cached articles,
// settings, and the manual refresh endpoint.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	newserrs "github.com/ArturAbdullinITIS/newsd/internal/errors"
	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
	newssync "github.com/ArturAbdullinITIS/newsd/internal/sync"
	"github.com/ArturAbdullinITIS/newsd/logger"
)

// Server is the HTTP portion serving the public API.
type Server struct {
	http.Server

	repo     newsd.Repository
	settings newsd.SettingsService
	syncer   *newssync.Syncer
}

func NewServer(port int, repo newsd.Repository, settings newsd.SettingsService, syncer *newssync.Syncer) *Server {
	s := &Server{
		repo:     repo,
		settings: settings,
		syncer:   syncer,
	}

	r := mux.NewRouter()
	r.Handle("/v1/subscriptions", handlerFuncE(s.listSubscriptions)).Methods(http.MethodGet)
	r.Handle("/v1/subscriptions", handlerFuncE(s.createSubscription)).Methods(http.MethodPost)
	r.Handle("/v1/subscriptions/{topic}", handlerFuncE(s.deleteSubscription)).Methods(http.MethodDelete)
	r.Handle("/v1/articles", handlerFuncE(s.listArticles)).Methods(http.MethodGet)
	r.Handle("/v1/articles", handlerFuncE(s.clearArticles)).Methods(http.MethodDelete)
	r.Handle("/v1/articles/watch", handlerFuncE(s.watchArticles)).Methods(http.MethodGet)
	r.Handle("/v1/settings", handlerFuncE(s.getSettings)).Methods(http.MethodGet)
	r.Handle("/v1/settings", handlerFuncE(s.updateSettings)).Methods(http.MethodPatch)
	r.Handle("/v1/refresh", handlerFuncE(s.refresh)).Methods(http.MethodPost)

	s.Server = http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		ReadTimeout: 5 * time.Second,
		Handler:     handlers.RecoveryHandler()(accessLogWrapper{inner: r}),
	}

	return s
}

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("error encoding json response: %s", err)
	}

	return nil
}

// Validator is a surface that can validate itself and return an error
// if something is wrong.
type Validator interface {
	Validate() error
}

// DecodeValid decodes a request and then validates it.
func DecodeValid[V Validator](r io.Reader) (V, error) {
	var v V
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return v, fmt.Errorf("error decoding request: %w", err)
	}
	if err := v.Validate(); err != nil {
		return v, fmt.Errorf("error validating request: %w", err)
	}

	return v, nil
}

// handlerFuncE is a modified [http.HandlerFunc] that returns an error.
type handlerFuncE func(w http.ResponseWriter, r *http.Request) error

func (f handlerFuncE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, r)
	if err == nil {
		return
	}

	// Either it's already a structured error, or coerce it to one
	sErr := &newserrs.Error{}
	if !errors.As(err, &sErr) {
		sErr = newserrs.E(http.StatusInternalServerError, err)
	}

	WriteJSON(w, sErr.Status, sErr)
}

// Implements [http.Handler] to wrap each call with an access log and a
// request id.
type accessLogWrapper struct {
	inner http.Handler
}

func (alw accessLogWrapper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logger.Ctx(r.Context(), slog.String("request_id", uuid.NewString()))

	writer := &respCodeWriter{ResponseWriter: w}
	alw.inner.ServeHTTP(writer, r.WithContext(ctx))

	slog.InfoContext(ctx, "request completed",
		"method", r.Method,
		"url", r.URL.String(),
		"duration", time.Since(start),
		"status_code", writer.code,
	)
}

type respCodeWriter struct {
	http.ResponseWriter
	code int
}

func (w *respCodeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush passes through so streaming handlers work behind the wrapper.
func (w *respCodeWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
