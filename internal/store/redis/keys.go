package redis

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	// KeyPrefix is shared by every key menav writes
	KeyPrefix = "menav:"
	// KeyPrefixCache is the prefix for cached search responses
	KeyPrefixCache = KeyPrefix + "cache:"
)

// Namespace derives a short, stable key namespace from a project root so
// several sites can share one Redis database.
func Namespace(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	sum := sha256.Sum256([]byte(root))
	return hex.EncodeToString(sum[:6])
}

// SnapshotKey returns the key holding the serialized build snapshot
func SnapshotKey(ns string) string {
	return KeyPrefix + ns + ":snapshot"
}

// HashKey returns the key holding the content hash of the last build
func HashKey(ns string) string {
	return KeyPrefix + ns + ":hash"
}

// QueriesKey returns the sorted set counting search queries
func QueriesKey(ns string) string {
	return KeyPrefix + ns + ":queries"
}

// CacheKey returns the key of a cached search response. The build hash is
// part of the key, so a new build never serves stale results.
func CacheKey(ns, buildHash, query string) string {
	return KeyPrefixCache + ns + ":" + buildHash + ":" + query
}
