// Package cache stores search reports keyed by a hash of the request.
//
// Three backends implement [Cache]:
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the API server and for
//     several CLI users sharing results
//   - [NullCache]: stores nothing, used when caching is disabled
//
// Keys come from a [Keyer]. [DefaultKeyer] hashes every input that
// influences a search result; [ScopedKeyer] adds a namespace prefix.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTTL is how long search reports stay cached. Reports depend only on
// their inputs, so entries are long-lived.
const DefaultTTL = 30 * 24 * time.Hour

// Cache is a byte-oriented key-value store with expiration.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry written by this cache.
	Clear(ctx context.Context) error
	// Close releases the backend.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// SearchKey identifies a search report.
	SearchKey(circuitHash, deviceHash string, opts SearchKeyOpts) string
}

// SearchKeyOpts lists the request fields that change a search report
// besides the circuit and device.
type SearchKeyOpts struct {
	// Dependencies is the resolved relation the search enforces.
	Dependencies      [][2]int      `json:"dependencies,omitempty"`
	Benchmark         string        `json:"benchmark,omitempty"`
	Timeout           time.Duration `json:"timeout,omitempty"`
	MaxDoublings      int           `json:"max_doublings,omitempty"`
	InitialBoundDepth int           `json:"initial_bound_depth,omitempty"`
	Preprocess        bool          `json:"preprocess,omitempty"`
	SwapDuration      int           `json:"swap_duration,omitempty"`
}

// DefaultKeyer produces keys of the form "search:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SearchKey hashes the circuit and device hashes together with opts.
func (DefaultKeyer) SearchKey(circuitHash, deviceHash string, opts SearchKeyOpts) string {
	return hashKey("search", circuitHash, deviceHash, opts)
}

var _ Keyer = DefaultKeyer{}

// keyVersion is mixed into every key. Bump it when the cached report
// encoding changes so stale entries are never decoded.
const keyVersion = 2

// hashKey returns "prefix:<sha256>" over the JSON encoding of parts.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	fmt.Fprintf(h, "v%d\n", keyVersion)
	_ = json.NewEncoder(h).Encode(parts)
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
