package p3a

import "sort"

// Bucket returns the index of the first threshold that is >= value, or
// len(thresholds) when value exceeds them all. Thresholds must be ascending.
func Bucket(thresholds []int, value int) int {
	return sort.SearchInts(thresholds, value)
}
