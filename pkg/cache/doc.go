// Package cache provides the eviction ledger used by bounded caches: a
// recency-ordered set of keys backed by a doubly linked list and an index map.
//
// The ledger tracks membership and order only. Values live with the owner
// (see package covercache), which keeps its own map in lockstep with the
// ledger and decides which candidates may actually be removed.
//
// # Operations
//
//   - Touch: move a present key to the most recent position, O(1)
//   - Insert: append a new key at the most recent position, O(1)
//   - Remove: drop a key, O(1)
//   - Oldest: lazy iterator over keys from least to most recently used
//
// # Usage
//
//	l := cache.NewLedger[string]()
//	_ = l.Insert("a")
//	_ = l.Insert("b")
//	l.Touch("a") // order is now b, a
//
//	for key := range l.Oldest() {
//		if key == pinned {
//			continue
//		}
//		l.Remove(key) // safe while iterating
//		break
//	}
//
// # Concurrency
//
// A Ledger is not synchronized. Every caller in this module mutates it while
// holding the owner's mutex.
package cache
