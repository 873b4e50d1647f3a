// Package cache provides a small key-value cache with LRU eviction and TTL
// support. The remote client uses it to remember handler names.
//
// The package defines two interfaces:
//
//   - [Cache]: Untyped cache storing values as any
//   - [TypedCache]: Generic type-safe wrapper via [NewTyped]
//
// # Implementations
//
// [LRU] provides an in-memory LRU cache that is safe for concurrent use.
// It runs a background goroutine for cache operations, ensuring thread safety
// without external locking.
//
//	c := cache.NewLRU(cache.LRUOpts{Size: 1000})
//	defer c.Close()
//
//	c.Put("key", value, cache.WithTTL(5*time.Minute))
//	if val, ok := c.Get("key"); ok {
//	    // use val
//	}
//
// # Type-Safe Usage
//
// Use [NewTyped] for compile-time type safety:
//
//	names := cache.NewTyped[string](lru)
//	names.Put("device.GetStatus", "status/get")
//	if name, ok := names.Get("device.GetStatus"); ok {
//	    // name is a string
//	}
//
// # TTL Support
//
// Use [WithTTL] to set per-entry expiration:
//
//	c.Put("session", data, cache.WithTTL(30*time.Minute))
//
// Expired entries are lazily evicted on access.
package cache
