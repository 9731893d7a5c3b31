// Package cache stores rendered icons so repeated renders of the same input
// and settings are served without rasterizing again.
//
// Keys are built by a [Keyer] from a hash of the input bytes and every
// setting that affects the output. Two implementations of [Cache] are
// provided: [FileCache] for the CLI, kept under the user cache directory,
// and [Disabled] when caching is disabled.
package cache

import (
	"context"
	"time"
)

// TTLRender is how long a rendered icon stays cached.
const TTLRender = 30 * 24 * time.Hour

// Cache is a byte store with expiring entries.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired and
	// corrupt entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
