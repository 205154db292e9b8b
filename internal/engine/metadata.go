package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rshade/needle/internal/client"
)

// MetadataSource fetches the filter vocabulary. *client.Client satisfies it.
type MetadataSource interface {
	Metadata(ctx context.Context) (*client.Metadata, error)
}

// Company is one entry of the company vocabulary.
type Company struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// Vocabulary is the set of values accepted by the structured filters.
type Vocabulary struct {
	// Companies sorted by display name.
	Companies []Company `json:"companies"`
	// Quarters in the order the service returned them.
	Quarters []string `json:"quarters"`
}

// NewVocabulary builds a sorted vocabulary from service metadata.
func NewVocabulary(md *client.Metadata) *Vocabulary {
	v := &Vocabulary{}
	if md == nil {
		return v
	}
	for name, ticker := range md.Companies {
		v.Companies = append(v.Companies, Company{Name: name, Ticker: strings.ToUpper(ticker)})
	}
	col := collate.New(language.English, collate.IgnoreCase)
	slices.SortFunc(v.Companies, func(a, b Company) int {
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Ticker, b.Ticker)
	})
	v.Quarters = slices.Clone(md.Quarters)
	return v
}

// ResolveCompany maps a ticker or company name (case-insensitive) to a ticker.
func (v *Vocabulary) ResolveCompany(input string) (string, bool) {
	needle := strings.TrimSpace(input)
	if needle == "" {
		return "", false
	}
	for _, c := range v.Companies {
		if strings.EqualFold(c.Ticker, needle) || strings.EqualFold(c.Name, needle) {
			return c.Ticker, true
		}
	}
	return "", false
}

// HasQuarter reports whether quarter (e.g. "Q1 2024") is in the vocabulary.
func (v *Vocabulary) HasQuarter(quarter string) bool {
	q := strings.Join(strings.Fields(quarter), " ")
	return slices.ContainsFunc(v.Quarters, func(s string) bool {
		return strings.EqualFold(s, q)
	})
}

// MetadataLoader fetches the vocabulary once and memoizes it. Concurrent
// callers share one request. Failures are not memoized.
type MetadataLoader struct {
	src    MetadataSource
	logger zerolog.Logger
	group  singleflight.Group

	mu    sync.RWMutex
	vocab *Vocabulary
}

// NewMetadataLoader creates a loader over src.
func NewMetadataLoader(src MetadataSource, logger zerolog.Logger) *MetadataLoader {
	return &MetadataLoader{
		src:    src,
		logger: logger.With().Str("component", "metadata").Logger(),
	}
}

// Load returns the memoized vocabulary, fetching it on first use.
func (l *MetadataLoader) Load(ctx context.Context) (*Vocabulary, error) {
	l.mu.RLock()
	v := l.vocab
	l.mu.RUnlock()
	if v != nil {
		return v, nil
	}

	res, err, shared := l.group.Do("metadata", func() (any, error) {
		md, err := l.src.Metadata(ctx)
		if err != nil {
			return nil, err
		}
		vocab := NewVocabulary(md)
		l.mu.Lock()
		l.vocab = vocab
		l.mu.Unlock()
		l.logger.Debug().
			Int("companies", len(vocab.Companies)).
			Int("quarters", len(vocab.Quarters)).
			Msg("loaded filter vocabulary")
		return vocab, nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading metadata: %w", err)
	}
	if shared {
		l.logger.Trace().Msg("metadata request shared")
	}
	vocab, _ := res.(*Vocabulary)
	return vocab, nil
}

// Invalidate drops the memoized vocabulary.
func (l *MetadataLoader) Invalidate() {
	l.mu.Lock()
	l.vocab = nil
	l.mu.Unlock()
}
