package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for byte-oriented caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a namespaced cache key. Input is case- and
// whitespace-normalised so trivially different queries share an entry.
func Key(namespace, input string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(input)), " ")
	hash := sha256.Sum256([]byte(normalized))
	return "claimtrace:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
