// Package cache holds the read-through TTL cache used for the cities and
// price-range endpoints.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Entry is a cached backend payload and the moment it was fetched.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Age reports how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// Store is the storage backend. Implementations keep expired entries around
// for a while so that a rate-limited refresh can still serve them.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
}

// Key joins trimmed request parameters into a deterministic cache key.
// Empty parts are kept as empty segments so positions stay stable. Case is
// preserved; callers fold the parts that are case insensitive with Fold.
func Key(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = strings.TrimSpace(p)
	}
	return strings.Join(normalized, "|")
}

// Fold normalizes an enum-like key part such as a language or a flag.
func Fold(part string) string {
	return strings.ToLower(strings.TrimSpace(part))
}
