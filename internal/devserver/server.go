// Package devserver serves a canned answer service over the same HTTP
// contract as the production backend, for local development and tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rshade/needle/internal/client"
	"github.com/rshade/needle/internal/transcript"
)

const (
	maxRequestBodySize = 1 << 20
	maxSnippets        = 5
	shutdownTimeout    = 5 * time.Second
)

// Server answers /search, /metadata and /healthz from fixtures.
type Server struct {
	fixtures *Fixtures
	logger   zerolog.Logger
	latency  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger attaches a request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l.With().Str("component", "devserver").Logger()
	}
}

// WithLatency delays every /search response.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		s.latency = d
	}
}

// New creates a server. Nil fixtures use the built-in corpus.
func New(f *Fixtures, opts ...Option) *Server {
	if f == nil {
		f = DefaultFixtures()
	}
	s := &Server{fixtures: f, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get(client.PathHealth, s.handleHealth)
	r.Get(client.PathMetadata, s.handleMetadata)
	r.Post(client.PathSearch, s.handleSearch)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. ready, when non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down")
	case serveErr := <-errCh:
		if serveErr != nil {
			return fmt.Errorf("server error: %w", serveErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, client.Health{Status: "ok", Version: s.fixtures.Version})
}

func (s *Server) handleMetadata(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, client.Metadata{
		Companies: s.fixtures.Companies,
		Quarters:  s.fixtures.Quarters,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req client.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusUnprocessableEntity, "invalid request body: %v", err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		httpError(w, http.StatusUnprocessableEntity, "query is required")
		return
	}

	filter, err := newPassageFilter(req.Filters)
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, "%v", err)
		return
	}

	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-r.Context().Done():
			return
		}
	}

	writeJSON(w, http.StatusOK, s.search(req.Query, filter))
}

// search picks the document sharing the most keywords with the query among
// those with at least one passage passing the filter.
func (s *Server) search(query string, filter passageFilter) client.SearchResponse {
	q := strings.ToLower(query)

	type candidate struct {
		doc      *Document
		score    int
		passages []Passage
	}
	var candidates []candidate
	for i := range s.fixtures.Documents {
		doc := &s.fixtures.Documents[i]
		score := 0
		for _, kw := range doc.Keywords {
			if kw != "" && strings.Contains(q, kw) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		var kept []Passage
		for _, p := range doc.Passages {
			if filter.match(p) {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			candidates = append(candidates, candidate{doc: doc, score: score, passages: kept})
		}
	}

	resp := client.SearchResponse{Snippets: []transcript.Snippet{}}
	if len(candidates) == 0 {
		return resp
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	best := candidates[0]
	resp.Answer = best.doc.Answer
	for i, p := range best.passages {
		if i == maxSnippets {
			break
		}
		resp.Snippets = append(resp.Snippets, p.snippet())
	}
	return resp
}

// passageFilter mirrors the backend's metadata filter: the company is
// compared lower-cased and "Q1 2024" is split into quarter and year.
type passageFilter struct {
	company string
	quarter transcript.Quarter
	section string
}

func newPassageFilter(f *client.SearchFilters) (passageFilter, error) {
	var pf passageFilter
	if f == nil {
		return pf, nil
	}
	pf.company = strings.ToLower(strings.TrimSpace(f.Company))
	if f.Quarter != "" {
		q, err := transcript.ParseQuarter(f.Quarter)
		if err != nil {
			return pf, err
		}
		pf.quarter = q
	}
	if f.Section != "" {
		section, err := transcript.ParseSection(f.Section)
		if err != nil {
			return pf, err
		}
		pf.section = string(section)
	}
	return pf, nil
}

func (f passageFilter) match(p Passage) bool {
	if f.company != "" &&
		f.company != strings.ToLower(p.Ticker) &&
		f.company != strings.ToLower(p.Company) {
		return false
	}
	if f.quarter != (transcript.Quarter{}) && f.quarter != p.period {
		return false
	}
	if f.section != "" && f.section != p.Section {
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"detail": fmt.Sprintf(format, args...),
	})
}
