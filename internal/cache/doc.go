// Package cache provides the process-wide response cache: a bounded,
// TTL-expiring key/value store with insertion-order (FIFO) eviction.
//
// Eviction deliberately ignores read recency. The oldest-inserted entry is
// dropped first even when it was read a moment ago.
package cache
