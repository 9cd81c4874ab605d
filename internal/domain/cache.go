package domain

import (
	"context"
	"time"
)

// Cache is a key-value store with per-key TTL used to memoize every upstream
// call. A miss, an expired key, and an unreachable backend are all reported
// as ErrNotFound; callers treat them identically and recompute. Set failures
// are logged and swallowed by implementations, never failing the caller's
// primary operation.
type Cache interface {
	// Get unmarshals the cached value for key into dest.
	Get(ctx context.Context, key string, dest any) error
	// Set stores value under key for the given TTL, last writer wins.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// AlertStore persists the full alert-rule list with read-whole-list /
// write-whole-list semantics. Reads degrade to an empty list when the backend
// is unreachable; writes surface ErrStoreUnavailable so alert state never
// silently vanishes.
type AlertStore interface {
	List(ctx context.Context) ([]AlertRule, error)
	Save(ctx context.Context, rules []AlertRule) error
}
