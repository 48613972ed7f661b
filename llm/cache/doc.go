// Package cache provides response caches for deterministic generation
// requests: an in-process LRU with TTL, a Redis-backed cache, and a
// two-level combination of both. All satisfy llm.ResponseCache.
package cache
