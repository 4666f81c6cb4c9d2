package p3a

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucket(t *testing.T) {
	buckets := []int{0, 1, 2, 3, 8, 12, 16}
	cases := map[int]int{
		0:   0,
		1:   1,
		3:   3,
		4:   4,
		8:   4,
		9:   5,
		16:  6,
		17:  7,
		500: 7,
	}
	for value, want := range cases {
		assert.Equal(t, want, Bucket(buckets, value), "value %d", value)
	}
}

func TestBucket_Monotonic(t *testing.T) {
	for _, thresholds := range [][]int{NewTabsCreatedBuckets, SponsoredNewTabsBuckets, {0, 1, 2, 3, 8, 12, 16}} {
		prev := Bucket(thresholds, 0)
		for v := 1; v < 100; v++ {
			b := Bucket(thresholds, v)
			assert.GreaterOrEqual(t, b, prev)
			prev = b
		}
	}
}
