package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketFor_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Bucket
	}{
		{-10, BucketLow},
		{0, BucketLow},
		{49.999, BucketLow},
		{50, BucketMedium},
		{74.999, BucketMedium},
		{75, BucketHigh},
		{100, BucketHigh},
		{150, BucketHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFor(tt.score), "score %v", tt.score)
	}
}

func TestBucketFor_Contiguous(t *testing.T) {
	prev := BucketFor(-1)
	rank := map[Bucket]int{BucketLow: 0, BucketMedium: 1, BucketHigh: 2}

	for s := 0.0; s <= 100; s += 0.25 {
		b := BucketFor(s)
		assert.GreaterOrEqual(t, rank[b], rank[prev], "bucket order must not decrease at %v", s)
		assert.Equal(t, b, BucketFor(s), "deterministic at %v", s)
		prev = b
	}
}

func TestBucketColours(t *testing.T) {
	seen := map[string]bool{}
	for _, b := range []Bucket{BucketHigh, BucketMedium, BucketLow} {
		assert.NotEmpty(t, b.Fill())
		assert.NotEmpty(t, b.Border())
		assert.False(t, seen[b.Fill()], "fill colours are distinct")
		seen[b.Fill()] = true
	}
}

func TestTransport(t *testing.T) {
	c, ok := ParseTransportCategory(" Electric ")
	assert.True(t, ok)
	label, ok := c.Label()
	assert.True(t, ok)
	assert.Equal(t, "Électrique", label)

	c, ok = ParseTransportCategory("all")
	assert.True(t, ok)
	assert.Equal(t, TransportAll, c)

	_, ok = ParseTransportCategory("teleport")
	assert.False(t, ok)

	assert.Equal(t, "rgba(155, 89, 182, 0.7)", TransportColor("Maritime"))
	assert.Equal(t, DefaultTransportColor, TransportColor("Drone"))
	assert.Len(t, TransportCategories(), 6)
}
