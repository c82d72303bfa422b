package search

import (
	"iter"
	"slices"
)

// OrderedMap is a read-only map that remembers the order of its keys.
type OrderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newOrderedMap[K comparable, V any](keys []K, values map[K]V) *OrderedMap[K, V] {
	return &OrderedMap[K, V]{keys: keys, values: values}
}

// Keys returns the keys in order.
func (m *OrderedMap[K, V]) Keys() []K {
	return slices.Clone(m.keys)
}

// Get returns the value stored for key.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of keys.
func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

// All iterates over key/value pairs in order.
func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}
