package cache

import (
	"container/list"
	"iter"
)

// Ledger is a recency-ordered set of keys.
// The front of the list is the least recently used key, the back is the most recent.
//
// Ledger is not safe for concurrent use; the owner serializes access.
type Ledger[K comparable] struct {
	items map[K]*list.Element
	order *list.List
}

// NewLedger creates an empty ledger.
func NewLedger[K comparable]() *Ledger[K] {
	return &Ledger[K]{
		items: make(map[K]*list.Element),
		order: list.New(),
	}
}

// Touch moves key to the most recent position.
// Returns false if the key is not tracked; Touch never inserts.
func (l *Ledger[K]) Touch(key K) bool {
	elem, ok := l.items[key]
	if !ok {
		return false
	}
	l.order.MoveToBack(elem)
	return true
}

// Insert appends key at the most recent position.
// Returns ErrDuplicate if the key is already tracked.
func (l *Ledger[K]) Insert(key K) error {
	if _, ok := l.items[key]; ok {
		return ErrDuplicate
	}
	l.items[key] = l.order.PushBack(key)
	return nil
}

// Remove drops key from the ledger. Returns false if it was not tracked.
func (l *Ledger[K]) Remove(key K) bool {
	elem, ok := l.items[key]
	if !ok {
		return false
	}
	l.order.Remove(elem)
	delete(l.items, key)
	return true
}

// Contains reports whether key is tracked.
func (l *Ledger[K]) Contains(key K) bool {
	_, ok := l.items[key]
	return ok
}

func (l *Ledger[K]) Len() int {
	return l.order.Len()
}

// Oldest returns the eviction candidates from least to most recently used.
// The sequence is lazy and can be ranged over any number of times.
// Removing the key just yielded is allowed while iterating.
func (l *Ledger[K]) Oldest() iter.Seq[K] {
	return func(yield func(K) bool) {
		for elem := l.order.Front(); elem != nil; {
			// Grab the successor first so the caller may remove elem.
			next := elem.Next()
			if !yield(elem.Value.(K)) {
				return
			}
			elem = next
		}
	}
}

// Clear forgets every key.
func (l *Ledger[K]) Clear() {
	l.items = make(map[K]*list.Element)
	l.order.Init()
}
