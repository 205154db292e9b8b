package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/needle/internal/client"
	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/storage"
	"github.com/rshade/needle/internal/transcript"
)

var errBackendDown = errors.New("backend down")

type fakeSearcher struct {
	mu    sync.Mutex
	calls []client.SearchRequest
	resp  *client.SearchResponse
	err   error
	fn    func(ctx context.Context, req client.SearchRequest) (*client.SearchResponse, error)
}

func (f *fakeSearcher) Search(ctx context.Context, req client.SearchRequest) (*client.SearchResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fn, resp, err := f.fn, f.resp, f.err
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return resp, err
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type brokenKV struct{}

func (brokenKV) Get(string) (string, bool, error) { return "", false, errBackendDown }
func (brokenKV) Set(string, string) error         { return errBackendDown }
func (brokenKV) Delete(string) error              { return errBackendDown }

type recorder struct {
	mu     sync.Mutex
	states []SearchState
}

func (r *recorder) observe(s SearchState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) kinds() []StateKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StateKind, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s.Kind)
	}
	return out
}

func marginResponse() *client.SearchResponse {
	return &client.SearchResponse{
		Answer: "Gross margin expanded to 46.6%.",
		Snippets: []transcript.Snippet{{
			Text:      "Gross margin was 46.6 percent.",
			Speakers:  map[string]string{"Luca Maestri": "CFO"},
			Company:   "Apple Inc.",
			Quarter:   1,
			Year:      2024,
			Section:   transcript.SectionPreparedRemarks,
			SourceURL: "https://example.com/aapl-q1-2024",
		}},
	}
}

func newTestOrchestrator(s Searcher, opts ...cache.Option) (*Orchestrator, *cache.Store, *recorder) {
	store := cache.NewStore(storage.NewMemory(), opts...)
	rec := &recorder{}
	return NewOrchestrator(s, store, WithObserver(rec.observe)), store, rec
}

func TestSubmit_EmptyQuery(t *testing.T) {
	searcher := &fakeSearcher{resp: marginResponse()}
	o, _, rec := newTestOrchestrator(searcher)

	for _, text := range []string{"", "   ", "\t\n"} {
		st, err := o.Submit(context.Background(), Query{Text: text})
		require.ErrorIs(t, err, ErrEmptyQuery)
		assert.Equal(t, StateIdle, st.Kind)
	}
	assert.Zero(t, searcher.callCount())
	assert.Empty(t, rec.kinds())
	assert.Zero(t, o.Generation())
}

func TestSubmit_MissThenHit(t *testing.T) {
	searcher := &fakeSearcher{resp: marginResponse()}
	o, _, rec := newTestOrchestrator(searcher)
	q := Query{Text: "gross margin", Filters: cache.Filters{Ticker: "aapl", Quarter: "Q1 2024"}}

	first, err := o.Submit(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, first.Kind)
	assert.False(t, first.FromCache)
	assert.Equal(t, cache.StatusStored, first.CacheStatus)
	assert.Equal(t, []StateKind{StateLoading, StateSuccess}, rec.kinds())

	second, err := o.Submit(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, cache.StatusHit, second.CacheStatus)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.Snippets, second.Snippets)
	assert.Equal(t, 1, searcher.callCount(), "cache hit must not reach the service")
	assert.Equal(t, []StateKind{StateLoading, StateSuccess, StateLoading, StateSuccess}, rec.kinds())
}

func TestSubmit_RepeatedHitsAreIdentical(t *testing.T) {
	searcher := &fakeSearcher{resp: marginResponse()}
	o, _, _ := newTestOrchestrator(searcher)
	q := Query{Text: "buybacks"}

	_, err := o.Submit(context.Background(), q)
	require.NoError(t, err)

	a, err := o.Submit(context.Background(), q)
	require.NoError(t, err)
	b, err := o.Submit(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, a.Answer, b.Answer)
	assert.Equal(t, a.Snippets, b.Snippets)
	assert.Equal(t, 1, searcher.callCount())
}

func TestSubmit_WhitespaceEquivalentQueriesShareEntry(t *testing.T) {
	searcher := &fakeSearcher{resp: marginResponse()}
	o, _, _ := newTestOrchestrator(searcher)

	_, err := o.Submit(context.Background(), Query{Text: "gross margin"})
	require.NoError(t, err)
	st, err := o.Submit(context.Background(), Query{Text: "  gross margin \n"})
	require.NoError(t, err)

	assert.True(t, st.FromCache)
	assert.Equal(t, "gross margin", st.Query.Text)
	assert.Equal(t, 1, searcher.callCount())
}

func TestSubmit_FiltersReachServiceAndSplitKeys(t *testing.T) {
	searcher := &fakeSearcher{resp: marginResponse()}
	o, _, _ := newTestOrchestrator(searcher)

	_, err := o.Submit(context.Background(), Query{Text: "guidance"})
	require.NoError(t, err)
	_, err = o.Submit(context.Background(), Query{
		Text:    "guidance",
		Filters: cache.Filters{Ticker: "nvda", Section: "QA"},
	})
	require.NoError(t, err)

	require.Equal(t, 2, searcher.callCount())
	assert.Nil(t, searcher.calls[0].Filters)
	require.NotNil(t, searcher.calls[1].Filters)
	assert.Equal(t, "NVDA", searcher.calls[1].Filters.Company)
	assert.Equal(t, "qa", searcher.calls[1].Filters.Section)
	assert.Empty(t, searcher.calls[1].Filters.Quarter)
}

func TestSubmit_EmptyAnswer(t *testing.T) {
	for name, resp := range map[string]*client.SearchResponse{
		"empty answer":      {Answer: "", Snippets: marginResponse().Snippets},
		"whitespace answer": {Answer: "   "},
		"nil response":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			searcher := &fakeSearcher{resp: resp}
			o, store, _ := newTestOrchestrator(searcher)
			q := Query{Text: "dividend"}

			st, err := o.Submit(context.Background(), q)
			require.NoError(t, err)
			assert.Equal(t, StateError, st.Kind)
			assert.Equal(t, MessageNoResults, st.Message)
			require.ErrorIs(t, st.Err, ErrNoResults)

			_, status := store.Get(q.Fingerprint())
			assert.Equal(t, cache.StatusMiss, status, "empty answers are not cached")
		})
	}
}

func TestSubmit_TransportError(t *testing.T) {
	searcher := &fakeSearcher{err: errBackendDown}
	o, store, rec := newTestOrchestrator(searcher)
	q := Query{Text: "capex"}

	st, err := o.Submit(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, StateError, st.Kind)
	assert.Equal(t, MessageRetrievalFailed, st.Message)
	require.ErrorIs(t, st.Err, ErrTransport)
	require.ErrorIs(t, st.Err, errBackendDown)
	assert.Equal(t, []StateKind{StateLoading, StateError}, rec.kinds())

	_, status := store.Get(q.Fingerprint())
	assert.Equal(t, cache.StatusMiss, status)
}

func TestSubmit_ExpiredEntryRefetches(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	searcher := &fakeSearcher{resp: marginResponse()}
	o, _, _ := newTestOrchestrator(searcher, cache.WithClock(clock), cache.WithTTL(time.Minute))

	_, err := o.Submit(context.Background(), Query{Text: "margin"})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	st, err := o.Submit(context.Background(), Query{Text: "margin"})
	require.NoError(t, err)
	assert.False(t, st.FromCache)
	assert.Equal(t, 2, searcher.callCount())
}

func TestSubmit_DegradedCacheStillAnswers(t *testing.T) {
	searcher := &fakeSearcher{resp: marginResponse()}
	o := NewOrchestrator(searcher, cache.NewStore(brokenKV{}))

	for range 2 {
		st, err := o.Submit(context.Background(), Query{Text: "margin"})
		require.NoError(t, err)
		assert.Equal(t, StateSuccess, st.Kind)
		assert.Equal(t, cache.StatusDegraded, st.CacheStatus)
	}
	assert.Equal(t, 2, searcher.callCount())
}

func TestSubmit_NilCacheDisablesCaching(t *testing.T) {
	searcher := &fakeSearcher{resp: marginResponse()}
	o := NewOrchestrator(searcher, nil)

	st, err := o.Submit(context.Background(), Query{Text: "margin"})
	require.NoError(t, err)
	assert.Equal(t, cache.StatusDisabled, st.CacheStatus)

	_, err = o.Submit(context.Background(), Query{Text: "margin"})
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.callCount())
}

func TestSubmit_StaleGenerationDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	searcher := &fakeSearcher{
		fn: func(_ context.Context, req client.SearchRequest) (*client.SearchResponse, error) {
			if req.Query == "slow" {
				close(entered)
				<-release
				return &client.SearchResponse{Answer: "slow answer"}, nil
			}
			return &client.SearchResponse{Answer: "fast answer"}, nil
		},
	}
	o, store, _ := newTestOrchestrator(searcher)

	type result struct {
		st  SearchState
		err error
	}
	done := make(chan result, 1)
	go func() {
		st, err := o.Submit(context.Background(), Query{Text: "slow"})
		done <- result{st, err}
	}()
	<-entered

	fast, err := o.Submit(context.Background(), Query{Text: "fast"})
	require.NoError(t, err)
	assert.Equal(t, "fast answer", fast.Answer)

	close(release)
	slow := <-done
	require.ErrorIs(t, slow.err, ErrSuperseded)
	assert.Equal(t, "slow answer", slow.st.Answer)

	current := o.State()
	assert.Equal(t, StateSuccess, current.Kind)
	assert.Equal(t, "fast answer", current.Answer)
	assert.Equal(t, uint64(2), current.Generation)

	entry, status := store.Get(Query{Text: "slow"}.Fingerprint())
	require.Equal(t, cache.StatusHit, status, "superseded results are still cached")
	assert.Equal(t, "slow answer", entry.Answer)
}

func TestSubmit_ObserverMayReadState(t *testing.T) {
	searcher := &fakeSearcher{resp: marginResponse()}
	var seen []StateKind
	var o *Orchestrator
	o = NewOrchestrator(searcher, nil, WithObserver(func(SearchState) {
		seen = append(seen, o.State().Kind)
	}))

	_, err := o.Submit(context.Background(), Query{Text: "margin"})
	require.NoError(t, err)
	assert.Equal(t, []StateKind{StateLoading, StateSuccess}, seen)
}

func TestSubmit_ObserverReadsStateWhileNextSubmitStarts(t *testing.T) {
	searcher := &fakeSearcher{resp: marginResponse()}
	entered := make(chan struct{})
	release := make(chan struct{})
	var first sync.Once

	var mu sync.Mutex
	var gens []uint64
	var o *Orchestrator
	o = NewOrchestrator(searcher, nil, WithObserver(func(st SearchState) {
		first.Do(func() {
			close(entered)
			<-release
		})
		_ = o.State()
		mu.Lock()
		gens = append(gens, st.Generation)
		mu.Unlock()
	}))

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = o.Submit(context.Background(), Query{Text: "margin"})
	}()
	<-entered

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, _ = o.Submit(context.Background(), Query{Text: "guidance"})
	}()
	require.Eventually(t, func() bool { return o.Generation() == 2 },
		time.Second, 5*time.Millisecond, "second submission never started")

	close(release)
	for _, done := range []chan struct{}{firstDone, secondDone} {
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Fatal("submissions did not finish while an observer was reading state")
		}
	}

	current := o.State()
	assert.Equal(t, uint64(2), current.Generation)
	assert.Equal(t, StateSuccess, current.Kind)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, gens)
	assert.IsNonDecreasing(t, gens)
	assert.Equal(t, uint64(2), gens[len(gens)-1])
}

func TestStateKind_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "success", StateSuccess.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "state(9)", StateKind(9).String())
}
