// Package constants centralizes environment-driven configuration:
// read the env var, else fall back to a sensible default.
package constants

import "os"

// GetCacheDir returns the interpretation-cache directory (see cache/).
func GetCacheDir() string {
	if path := os.Getenv("WESTERLINES_CACHE_PATH"); path != "" {
		return path
	}
	return "./out"
}

// GetCorpusTable returns the DynamoDB table name used by db.Lookup for
// known-exercise metadata.
func GetCorpusTable() string {
	if t := os.Getenv("WESTERLINES_CORPUS_TABLE"); t != "" {
		return t
	}
	return "westerlines-corpus-metadata"
}

// GetCorpusEndpoint returns the DynamoDB endpoint, defaulting to a local
// DynamoDB instance.
func GetCorpusEndpoint() string {
	if e := os.Getenv("WESTERLINES_CORPUS_ENDPOINT"); e != "" {
		return e
	}
	return "http://localhost:8000"
}

// CachedLineSignatureSize is the fixed-width record size, in bytes, for one
// cached interpretation-count entry: 4 for the cache key's hash, 4 each
// for the primary, bass, and generic interpretation counts, 1 for flags.
const CachedLineSignatureSize = 17

// PreferredCacheChunkSize bounds how large a compacted cache chunk file is
// allowed to grow before a new one is started.
const PreferredCacheChunkSize = 64 * 1024 * 1024

// MaxBranches bounds the parser's live branch count. Exceeding it aborts
// the parse of that line with an "interpretation search exceeded limits"
// error rather than runaway memory growth.
const MaxBranches = 4096
