package cache

import (
	"time"

	"github.com/rshade/needle/internal/transcript"
)

// Entry is a cached search answer. Entries are immutable once written:
// a later Set under the same fingerprint replaces the whole entry.
type Entry struct {
	Answer   string               `json:"answer"`
	Snippets []transcript.Snippet `json:"snippets"`
	StoredAt time.Time            `json:"stored_at"`
}

// Age returns how long ago the entry was stored, relative to now.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// IsExpired reports whether the entry is older than ttl at now.
// An entry exactly ttl old is still fresh.
func (e *Entry) IsExpired(now time.Time, ttl time.Duration) bool {
	return e.Age(now) > ttl
}

// TimeUntilExpiration returns the remaining lifetime, or 0 if already expired.
func (e *Entry) TimeUntilExpiration(now time.Time, ttl time.Duration) time.Duration {
	remaining := ttl - e.Age(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
