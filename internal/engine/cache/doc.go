// Package cache provides the persisted query-result cache with TTL expiration.
//
// Search answers are stored in a single table keyed by query fingerprint and
// serialized as one JSON document under a well-known storage key. Key features:
//   - Deterministic SHA256 fingerprints over a fixed (query, ticker, quarter, section) tuple
//   - Store-wide TTL (default 5 minutes) applied uniformly to every entry
//   - Lazy eviction: expired entries are dropped when read, never by a background sweep
//   - Self-healing: unreadable or malformed tables are treated as empty and
//     replaced on the next write; storage faults never reach the caller
//
// Every operation reports a Status so callers and tests can tell a plain miss
// from a degraded (storage fault) path.
package cache
