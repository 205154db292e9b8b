package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rshade/needle/internal/client"
	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/transcript"
)

// Searcher performs the remote search. *client.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, req client.SearchRequest) (*client.SearchResponse, error)
}

// ResultCache is the subset of *cache.Store the orchestrator needs.
type ResultCache interface {
	Get(key cache.Fingerprint) (*cache.Entry, cache.Status)
	Set(key cache.Fingerprint, answer string, snippets []transcript.Snippet) cache.Status
}

// Observer receives state transitions in order. When submissions overlap, a
// transition that was already replaced by a newer one before it could be
// delivered is skipped, so observers never see the state move backwards.
// Observers run synchronously and may call State but must not call Submit.
type Observer func(SearchState)

// Orchestrator drives one search submission at a time through
// Idle -> Loading -> Success | Error, short-circuiting on cache hits.
//
// Submissions may overlap. Each one takes a new generation number; a
// submission whose generation is no longer current when it finishes does not
// touch the state.
type Orchestrator struct {
	searcher  Searcher
	cache     ResultCache
	logger    zerolog.Logger
	observers []Observer

	mu         sync.Mutex
	state      SearchState
	generation uint64
	seq        uint64

	notifyMu  sync.Mutex
	delivered uint64
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithObserver registers a state observer.
func WithObserver(obs Observer) OrchestratorOption {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = l.With().Str("component", "search").Logger()
	}
}

// NewOrchestrator creates an orchestrator. A nil cache disables caching.
func NewOrchestrator(searcher Searcher, c ResultCache, opts ...OrchestratorOption) *Orchestrator {
	if c == nil {
		c = cache.NewStore(nil)
	}
	o := &Orchestrator{
		searcher: searcher,
		cache:    c,
		logger:   zerolog.Nop(),
		state:    SearchState{Kind: StateIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() SearchState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Generation returns the generation of the most recent accepted submission.
func (o *Orchestrator) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// Submit runs a search and returns the terminal state it produced.
//
// A whitespace-only query returns ErrEmptyQuery with no transition. When a
// newer submission started in the meantime, Submit returns the state it
// would have produced together with ErrSuperseded, and the current state is
// left to the newer submission. Terminal Error states are not Go errors:
// inspect SearchState.Kind and SearchState.Err.
func (o *Orchestrator) Submit(ctx context.Context, q Query) (SearchState, error) {
	q = q.Normalized()
	if q.Text == "" {
		return o.State(), ErrEmptyQuery
	}

	gen := o.begin(q)
	key := cache.GenerateKey(q.Text, q.Filters)
	log := o.logger.With().
		Uint64("generation", gen).
		Str("key", key.Short()).
		Logger()

	entry, status := o.cache.Get(key)
	if status == cache.StatusHit {
		log.Debug().Msg("answer served from cache")
		return o.finish(gen, successState(gen, q, entry.Answer, entry.Snippets, true, status))
	}
	log.Debug().Str("cache", status.String()).Msg("querying search service")

	resp, err := o.searcher.Search(ctx, q.request())
	if err != nil {
		log.Warn().Err(err).Msg("search request failed")
		return o.finish(gen, errorState(gen, q, fmt.Errorf("%w: %w", ErrTransport, err), status))
	}
	if resp == nil || strings.TrimSpace(resp.Answer) == "" {
		log.Debug().Msg("search returned no answer")
		return o.finish(gen, errorState(gen, q, ErrNoResults, status))
	}

	status = o.cache.Set(key, resp.Answer, resp.Snippets)
	log.Debug().
		Str("cache", status.String()).
		Int("snippets", len(resp.Snippets)).
		Msg("search succeeded")
	return o.finish(gen, successState(gen, q, resp.Answer, resp.Snippets, false, status))
}

func (o *Orchestrator) begin(q Query) uint64 {
	o.mu.Lock()
	o.generation++
	gen := o.generation
	st := loadingState(gen, q)
	o.state = st
	o.seq++
	seq := o.seq
	o.mu.Unlock()

	o.publish(seq, st)
	return gen
}

func (o *Orchestrator) finish(gen uint64, st SearchState) (SearchState, error) {
	o.mu.Lock()
	if gen != o.generation {
		current := o.generation
		o.mu.Unlock()
		o.logger.Debug().
			Uint64("generation", gen).
			Uint64("current", current).
			Msg("discarding superseded result")
		return st, ErrSuperseded
	}
	o.state = st
	o.seq++
	seq := o.seq
	o.mu.Unlock()

	o.publish(seq, st)
	return st, nil
}

// publish delivers the transition numbered seq unless a later one has already
// been delivered. It must be called without holding mu.
func (o *Orchestrator) publish(seq uint64, st SearchState) {
	if len(o.observers) == 0 {
		return
	}
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	if seq <= o.delivered {
		o.logger.Debug().
			Uint64("generation", st.Generation).
			Str("state", st.Kind.String()).
			Msg("skipping stale state notification")
		return
	}
	o.delivered = seq
	for _, obs := range o.observers {
		obs(st)
	}
}

func (q Query) request() client.SearchRequest {
	req := client.SearchRequest{Query: q.Text}
	if !q.Filters.IsZero() {
		req.Filters = &client.SearchFilters{
			Company: q.Filters.Ticker,
			Quarter: q.Filters.Quarter,
			Section: q.Filters.Section,
		}
	}
	return req
}

func isNoResults(err error) bool {
	return errors.Is(err, ErrNoResults)
}
