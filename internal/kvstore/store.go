// Package kvstore is the ephemeral key/value layer holding seat holds and
// checkout sessions.  Every entry carries a TTL and disappears on its own
// when the TTL elapses; callers never run timers.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrMissing is returned when a key does not exist or has expired.  The two
// cases are deliberately indistinguishable.
var ErrMissing = errors.New("kvstore: key missing or expired")

// Store is the capability the hold manager and the checkout coordinator
// depend on.  Any error other than ErrMissing means the backend could not
// be reached or answered unexpectedly; callers must treat it as fatal for
// the request and never as "key absent".
type Store interface {
	// SetIfAbsent writes value under key with ttl only when no live entry
	// exists.  It reports whether the write happened.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get returns the live value of key or ErrMissing.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key with ttl unconditionally.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// ExpireIfValue resets the TTL of key to ttl when its current value
	// equals value.  It reports whether the TTL was reset.
	ExpireIfValue(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// DeleteIfValue removes key when its current value equals value.  It
	// reports whether a key was removed.
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
	// Delete removes key.  Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// TTL returns the remaining lifetime of key or ErrMissing.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
