// Package collection provides generic helpers for slices used by the
// services when shaping query results.
//
//	ids := collection.Map(entries, func(e models.InventoryEntry) uint { return e.ProductID })
//	byShop := collection.KeyBy(shops, func(s models.Shop) uint { return s.ID })
package collection

import "sort"

// Map transforms each element of slice s using fn.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter returns the elements for which fn returns true.
func Filter[T any](s []T, fn func(T) bool) []T {
	var out []T
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// KeyBy indexes s by the key fn returns; later elements win on collision.
func KeyBy[T any, K comparable](s []T, fn func(T) K) map[K]T {
	out := make(map[K]T, len(s))
	for _, v := range s {
		out[fn(v)] = v
	}
	return out
}

// Group is one bucket produced by GroupBy.
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// GroupBy partitions s by fn, keeping groups in order of each key's first
// appearance and items in their original order.
func GroupBy[T any, K comparable](s []T, fn func(T) K) []Group[K, T] {
	index := make(map[K]int)
	var out []Group[K, T]
	for _, v := range s {
		k := fn(v)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Group[K, T]{Key: k})
		}
		out[i].Items = append(out[i].Items, v)
	}
	return out
}

// Unique returns s with duplicate elements removed, keeping first
// occurrences in order.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	var out []T
	for _, v := range s {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// SortBy stably sorts s in place by less and returns it.
func SortBy[T any](s []T, less func(a, b T) bool) []T {
	sort.SliceStable(s, func(i, j int) bool { return less(s[i], s[j]) })
	return s
}

// MinBy returns the element for which no other is less, preferring the
// earliest on ties. ok is false for an empty slice.
func MinBy[T any](s []T, less func(a, b T) bool) (min T, ok bool) {
	for i, v := range s {
		if i == 0 || less(v, min) {
			min = v
		}
	}
	return min, len(s) > 0
}
