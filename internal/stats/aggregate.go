// Package stats holds the pure aggregation helpers behind dashboard widgets:
// grouping, bar-width normalisation and predicate counts.
package stats

import (
	"cmp"
	"math"
	"slices"
)

// Bucket accumulates the records that share a key.
type Bucket struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
}

// KeyedBucket is a Bucket with its key, used for ordered output.
type KeyedBucket[K cmp.Ordered] struct {
	Key     K       `json:"key"`
	Count   int     `json:"count"`
	Sum     float64 `json:"sum"`
	Percent float64 `json:"percent"`
}

// GroupAndSum folds records into buckets in a single pass: each record
// increments the count of its key and adds value(record) to the sum.
// Map iteration order is unspecified; use SortBuckets for display.
func GroupAndSum[T any, K comparable](records []T, key func(T) K, value func(T) float64) map[K]Bucket {
	out := make(map[K]Bucket)
	for _, r := range records {
		k := key(r)
		b := out[k]
		b.Count++
		if value != nil {
			b.Sum += value(r)
		}
		out[k] = b
	}
	return out
}

// SortBuckets orders buckets by sum descending, then count descending, then
// key ascending, and fills Percent relative to the largest sum.
func SortBuckets[K cmp.Ordered](buckets map[K]Bucket) []KeyedBucket[K] {
	out := make([]KeyedBucket[K], 0, len(buckets))
	sums := make([]float64, 0, len(buckets))
	for k, b := range buckets {
		out = append(out, KeyedBucket[K]{Key: k, Count: b.Count, Sum: b.Sum})
		sums = append(sums, b.Sum)
	}
	slices.SortFunc(out, func(a, b KeyedBucket[K]) int {
		if c := cmp.Compare(b.Sum, a.Sum); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	for i := range out {
		out[i].Percent = PercentageOfMax(out[i].Sum, sums)
	}
	return out
}

// PercentageOfMax returns value / max(all) * 100 clamped to [0, 100].
// An empty list, a non-positive maximum or a NaN yields 0. A value at or
// above the maximum yields 100, including an infinite value against an
// infinite maximum.
func PercentageOfMax(value float64, all []float64) float64 {
	top := 0.0
	for _, v := range all {
		if v > top {
			top = v
		}
	}
	if top <= 0 || math.IsNaN(value) {
		return 0
	}
	if value >= top {
		return 100
	}
	p := value / top * 100
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	return min(p, 100)
}

// CountByPredicate returns the number of records for which pred is true.
func CountByPredicate[T any](records []T, pred func(T) bool) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

// CountBy returns the number of records per key.
func CountBy[T any, K comparable](records []T, key func(T) K) map[K]int {
	out := make(map[K]int)
	for _, r := range records {
		out[key(r)]++
	}
	return out
}
