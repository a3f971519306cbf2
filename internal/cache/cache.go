// Package cache provides caching for scan findings, keyed by file content
// and the active rule set. A hit returns exactly the findings the scan
// would produce, so cached and uncached runs are indistinguishable.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/stylescan/stylescan/internal/scanner"
)

// Backend names for the factory.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Cache defines the interface for caching per-file findings.
type Cache interface {
	// Get retrieves cached findings; found is false on miss or expiry.
	Get(key string) ([]scanner.Finding, bool, error)

	// Set stores findings under the key.
	Set(key string, findings []scanner.Finding) error

	// Clear removes all cached entries.
	Clear() error

	// Close releases cache resources.
	Close() error
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// New builds a cache for the named backend.
func New(backend, dir string, maxEntries int, ttl time.Duration) (Cache, error) {
	switch backend {
	case BackendMemory:
		return NewLRUCache(maxEntries, ttl), nil
	case BackendBadger:
		return NewBadgerCache(dir, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", backend)
	}
}

// ComputeKey derives the cache key for one file scan: a SHA-256 over the
// fingerprint of the rules applied to the file and its content. The path
// is deliberately not part of the key, so renaming a file keeps its
// cached findings valid as long as the same rules still apply to it.
func ComputeKey(content []byte, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
