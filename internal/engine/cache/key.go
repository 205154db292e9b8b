package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// fingerprintPrefix versions the key format; bump it when the encoding changes.
const fingerprintPrefix = "q1:"

// Fingerprint is the opaque cache key for a query and its filters.
type Fingerprint string

// Filters are the structured search filters that participate in the fingerprint.
// An empty field means the filter is unset.
type Filters struct {
	Ticker  string `json:"ticker,omitempty"`
	Quarter string `json:"quarter,omitempty"`
	Section string `json:"section,omitempty"`
}

// Canonical returns f with values normalized: whitespace trimmed (and collapsed
// inside the quarter), ticker upper-cased, section lower-cased.
func (f Filters) Canonical() Filters {
	return Filters{
		Ticker:  strings.ToUpper(strings.TrimSpace(f.Ticker)),
		Quarter: strings.Join(strings.Fields(f.Quarter), " "),
		Section: strings.ToLower(strings.TrimSpace(f.Section)),
	}
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.Canonical() == Filters{}
}

// GenerateKey derives the fingerprint for query and filters.
//
// The fields are written in a fixed order, each length-prefixed so that no
// combination of values can collide with another. query is used verbatim:
// callers trim it first.
func GenerateKey(query string, filters Filters) Fingerprint {
	f := filters.Canonical()

	var b strings.Builder
	for _, field := range [...]string{query, f.Ticker, f.Quarter, f.Section} {
		b.WriteString(strconv.Itoa(len(field)))
		b.WriteByte(':')
		b.WriteString(field)
		b.WriteByte('|')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return Fingerprint(fingerprintPrefix + hex.EncodeToString(sum[:]))
}

// String implements fmt.Stringer.
func (k Fingerprint) String() string {
	return string(k)
}

// Short returns an abbreviated form for logs.
func (k Fingerprint) Short() string {
	const shortLen = len(fingerprintPrefix) + 12
	if len(k) <= shortLen {
		return string(k)
	}
	return string(k[:shortLen])
}
