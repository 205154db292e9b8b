package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/needle/internal/storage"
	"github.com/rshade/needle/internal/transcript"
)

// DefaultStorageKey is the reserved storage key holding the serialized table.
const DefaultStorageKey = "needleQueryCache"

// Status is the outcome of a cache operation.
type Status int

const (
	// StatusMiss means no entry exists for the key.
	StatusMiss Status = iota
	// StatusHit means a fresh entry was returned.
	StatusHit
	// StatusExpired means the entry was past its TTL and has been evicted.
	StatusExpired
	// StatusStored means the entry was written.
	StatusStored
	// StatusDegraded means the storage layer failed; the operation fell back
	// to "absent" (reads) or "not written" (writes).
	StatusDegraded
	// StatusDisabled means caching is turned off.
	StatusDisabled
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusMiss:
		return "miss"
	case StatusHit:
		return "hit"
	case StatusExpired:
		return "expired"
	case StatusStored:
		return "stored"
	case StatusDegraded:
		return "degraded"
	case StatusDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Stats summarizes the persisted table.
type Stats struct {
	Entries int
	Fresh   int
	Expired int
	Oldest  time.Time
	Newest  time.Time
	Bytes   int
	TTL     time.Duration
	Corrupt bool
}

// Store is the TTL cache over a persistent KV.
//
// Each operation reads the whole table, applies its change and writes the
// whole table back. The sequence is serialized by an in-process mutex and,
// when the KV implements storage.Locker, by a cross-process lock.
type Store struct {
	kv      storage.KV
	key     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
	logger  zerolog.Logger

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the store-wide TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger; the store logs faults at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l.With().Str("component", "cache").Logger()
	}
}

// WithStorageKey overrides the reserved storage key.
func WithStorageKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithEnabled turns caching on or off.
func WithEnabled(enabled bool) Option {
	return func(s *Store) {
		s.enabled = enabled
	}
}

// NewStore creates a cache over kv. A nil kv yields a disabled store.
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		key:     DefaultStorageKey,
		ttl:     DefaultTTL,
		enabled: true,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if kv == nil {
		s.enabled = false
	}
	return s
}

// Get returns the fresh entry for key.
// Expired entries are removed from the table before returning StatusExpired.
func (s *Store) Get(key Fingerprint) (*Entry, Status) {
	if !s.enabled {
		return nil, StatusDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		s.fault("get", key, err)
		return nil, StatusDegraded
	}
	defer unlock()

	table, err := s.load()
	if err != nil {
		s.fault("get", key, err)
		return nil, StatusDegraded
	}

	entry, ok := table.Entries[key]
	if !ok {
		return nil, StatusMiss
	}

	now := s.now()
	if entry.IsExpired(now, s.ttl) {
		delete(table.Entries, key)
		if saveErr := s.save(table); saveErr != nil {
			s.fault("evict", key, saveErr)
		}
		s.logger.Debug().
			Str("key", key.Short()).
			Dur("age", entry.Age(now)).
			Msg("evicted expired cache entry")
		return nil, StatusExpired
	}

	return entry, StatusHit
}

// Set stores answer and snippets under key with StoredAt = now, replacing any
// previous entry. A corrupt table is discarded and rewritten.
func (s *Store) Set(key Fingerprint, answer string, snippets []transcript.Snippet) Status {
	if !s.enabled {
		return StatusDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		s.fault("set", key, err)
		return StatusDegraded
	}
	defer unlock()

	table, err := s.load()
	if err != nil {
		s.fault("set", key, err)
		table = newTable()
	}

	table.Entries[key] = &Entry{
		Answer:   answer,
		Snippets: transcript.CloneSnippets(snippets),
		StoredAt: s.now().UTC(),
	}

	if err := s.save(table); err != nil {
		s.fault("set", key, err)
		return StatusDegraded
	}
	return StatusStored
}

// Clear deletes the persisted table.
func (s *Store) Clear() error {
	if !s.enabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		return fmt.Errorf("locking cache table: %w", err)
	}
	defer unlock()

	if err := s.kv.Delete(s.key); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Prune removes every expired entry in a single rewrite and returns how many
// were dropped. It only runs when a user asks for it.
func (s *Store) Prune() (int, Status) {
	if !s.enabled {
		return 0, StatusDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		s.fault("prune", "", err)
		return 0, StatusDegraded
	}
	defer unlock()

	table, err := s.load()
	if err != nil {
		s.fault("prune", "", err)
		return 0, StatusDegraded
	}

	now := s.now()
	removed := 0
	for k, e := range table.Entries {
		if e.IsExpired(now, s.ttl) {
			delete(table.Entries, k)
			removed++
		}
	}
	if removed == 0 {
		return 0, StatusMiss
	}

	if err := s.save(table); err != nil {
		s.fault("prune", "", err)
		return 0, StatusDegraded
	}
	return removed, StatusStored
}

// Stats reports on the persisted table without modifying it.
// A corrupt table is reported via Stats.Corrupt rather than an error.
func (s *Store) Stats() (Stats, error) {
	stats := Stats{TTL: s.ttl}
	if !s.enabled {
		return stats, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return stats, fmt.Errorf("reading cache table: %w", err)
	}
	if !ok {
		return stats, nil
	}
	stats.Bytes = len(raw)

	table, err := decodeTable(raw)
	if err != nil {
		stats.Corrupt = true
		return stats, nil //nolint:nilerr // corruption is reported in Stats
	}

	now := s.now()
	for _, e := range table.Entries {
		stats.Entries++
		if e.IsExpired(now, s.ttl) {
			stats.Expired++
		} else {
			stats.Fresh++
		}
		if stats.Oldest.IsZero() || e.StoredAt.Before(stats.Oldest) {
			stats.Oldest = e.StoredAt
		}
		if e.StoredAt.After(stats.Newest) {
			stats.Newest = e.StoredAt
		}
	}
	return stats, nil
}

// TTL returns the store-wide TTL.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// IsEnabled reports whether caching is active.
func (s *Store) IsEnabled() bool {
	return s.enabled
}

// StorageKey returns the reserved key holding the table.
func (s *Store) StorageKey() string {
	return s.key
}

// load reads and decodes the table. A missing table is an empty table.
func (s *Store) load() (*Table, error) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("reading cache table: %w", err)
	}
	if !ok || raw == "" {
		return newTable(), nil
	}
	return decodeTable(raw)
}

func (s *Store) save(t *Table) error {
	raw, err := t.encode()
	if err != nil {
		return err
	}
	if err := s.kv.Set(s.key, raw); err != nil {
		return fmt.Errorf("writing cache table: %w", err)
	}
	return nil
}

func (s *Store) lock() (func(), error) {
	locker, ok := s.kv.(storage.Locker)
	if !ok {
		return func() {}, nil
	}
	return locker.Lock(s.key)
}

func (s *Store) fault(op string, key Fingerprint, err error) {
	event := s.logger.Debug().Err(err).Str("operation", op)
	if key != "" {
		event = event.Str("key", key.Short())
	}
	event.Bool("corrupt", errors.Is(err, ErrTableCorrupted)).Msg("cache degraded to pass-through")
}
