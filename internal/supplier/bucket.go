package supplier

// Bucket is the score tier used for every score-based colour in the dashboard
type Bucket string

const (
	BucketHigh   Bucket = "high"
	BucketMedium Bucket = "medium"
	BucketLow    Bucket = "low"
)

// Score thresholds, inclusive lower bounds
const (
	HighThreshold   = 75.0
	MediumThreshold = 50.0
)

// BucketFor maps a score to its bucket.
// ⭐ SSOT: cards, charts and top-supplier badges must all colour through here
func BucketFor(score float64) Bucket {
	switch {
	case score >= HighThreshold:
		return BucketHigh
	case score >= MediumThreshold:
		return BucketMedium
	default:
		return BucketLow
	}
}

// Fill returns the translucent fill colour of the bucket
func (b Bucket) Fill() string {
	switch b {
	case BucketHigh:
		return "rgba(46, 204, 113, 0.7)"
	case BucketMedium:
		return "rgba(241, 196, 15, 0.7)"
	default:
		return "rgba(231, 76, 60, 0.7)"
	}
}

// Border returns the solid border colour of the bucket
func (b Bucket) Border() string {
	switch b {
	case BucketHigh:
		return "rgb(39, 174, 96)"
	case BucketMedium:
		return "rgb(243, 156, 18)"
	default:
		return "rgb(192, 57, 43)"
	}
}
