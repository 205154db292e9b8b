package engine

import (
	"fmt"
	"strings"

	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/transcript"
)

// StateKind tags the active SearchState variant.
type StateKind int

const (
	// StateIdle is the initial state before any submission.
	StateIdle StateKind = iota
	// StateLoading means a submission is in flight.
	StateLoading
	// StateSuccess carries an answer and its snippets.
	StateSuccess
	// StateError carries a user-facing failure message.
	StateError
)

// String implements fmt.Stringer.
func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// Query is a search submission: free text plus structured filters.
type Query struct {
	Text    string
	Filters cache.Filters
}

// Normalized trims the text and canonicalizes the filters.
func (q Query) Normalized() Query {
	return Query{
		Text:    strings.TrimSpace(q.Text),
		Filters: q.Filters.Canonical(),
	}
}

// Fingerprint returns the cache key for the normalized query.
func (q Query) Fingerprint() cache.Fingerprint {
	n := q.Normalized()
	return cache.GenerateKey(n.Text, n.Filters)
}

// SearchState is the orchestrator's observable state.
// Exactly one variant (Kind) is active; payload fields of other variants are zero.
type SearchState struct {
	Kind       StateKind
	Generation uint64
	Query      Query

	// Success payload.
	Answer      string
	Snippets    []transcript.Snippet
	FromCache   bool
	CacheStatus cache.Status

	// Error payload.
	Message string
	Err     error
}

// IsTerminal reports whether the state ends a submission.
func (s SearchState) IsTerminal() bool {
	return s.Kind == StateSuccess || s.Kind == StateError
}

func loadingState(gen uint64, q Query) SearchState {
	return SearchState{Kind: StateLoading, Generation: gen, Query: q}
}

func successState(gen uint64, q Query, answer string, snippets []transcript.Snippet, fromCache bool, status cache.Status) SearchState {
	return SearchState{
		Kind:        StateSuccess,
		Generation:  gen,
		Query:       q,
		Answer:      answer,
		Snippets:    snippets,
		FromCache:   fromCache,
		CacheStatus: status,
	}
}

func errorState(gen uint64, q Query, err error, status cache.Status) SearchState {
	msg := MessageRetrievalFailed
	if isNoResults(err) {
		msg = MessageNoResults
	}
	return SearchState{
		Kind:        StateError,
		Generation:  gen,
		Query:       q,
		Message:     msg,
		Err:         err,
		CacheStatus: status,
	}
}
