// Package filter narrows a normalized supplier list with a sparse, AND-combined set of criteria.
package filter

import (
	"math"
	"net/url"
	"strconv"

	"github.com/wonny/ecorank/backend/internal/supplier"
)

// Spec is a sparse set of user-chosen constraints. Zero values are no-ops,
// as are malformed values (non-finite thresholds, unknown transport keys).
type Spec struct {
	MinScore     float64 `json:"minScore,omitempty" toml:"min_score"`
	MinRenewable float64 `json:"minRenewable,omitempty" toml:"min_renewable"`
	Transport    string  `json:"transport,omitempty" toml:"transport"`
}

func threshold(v float64) (float64, bool) {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// transportLabel returns the label a record must carry, if the transport criterion is active
func (s Spec) transportLabel() (string, bool) {
	c, ok := supplier.ParseTransportCategory(s.Transport)
	if !ok || c == supplier.TransportAll {
		return "", false
	}
	return c.Label()
}

// IsEmpty reports whether every criterion is a no-op
func (s Spec) IsEmpty() bool {
	_, score := threshold(s.MinScore)
	_, renewable := threshold(s.MinRenewable)
	_, transport := s.transportLabel()
	return !score && !renewable && !transport
}

// Matches reports whether a record satisfies every active criterion.
// An unavailable renewable percentage never satisfies a minimum.
func (s Spec) Matches(rec supplier.Normalized) bool {
	if floor, ok := threshold(s.MinScore); ok && rec.Score < floor {
		return false
	}

	if floor, ok := threshold(s.MinRenewable); ok {
		if !rec.RenewablePct.Valid || rec.RenewablePct.Value < floor {
			return false
		}
	}

	if label, ok := s.transportLabel(); ok && rec.Transport != label {
		return false
	}

	return true
}

// Apply returns the records passing spec, preserving order. The input is never
// mutated; an empty spec returns the input slice itself, not a copy.
func Apply(records []supplier.Normalized, spec Spec) []supplier.Normalized {
	if spec.IsEmpty() {
		return records
	}

	out := make([]supplier.Normalized, 0, len(records))
	for _, rec := range records {
		if spec.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// ParseQuery reads minScore, minRenewable and transport from query parameters.
// Unparseable values are dropped.
func ParseQuery(q url.Values) Spec {
	var spec Spec
	if v, err := strconv.ParseFloat(q.Get("minScore"), 64); err == nil {
		spec.MinScore = v
	}
	if v, err := strconv.ParseFloat(q.Get("minRenewable"), 64); err == nil {
		spec.MinRenewable = v
	}
	if c, ok := supplier.ParseTransportCategory(q.Get("transport")); ok {
		spec.Transport = string(c)
	}
	return spec
}

// Query encodes the active criteria back into query parameters
func (s Spec) Query() url.Values {
	q := url.Values{}
	if v, ok := threshold(s.MinScore); ok {
		q.Set("minScore", strconv.FormatFloat(v, 'f', -1, 64))
	}
	if v, ok := threshold(s.MinRenewable); ok {
		q.Set("minRenewable", strconv.FormatFloat(v, 'f', -1, 64))
	}
	if _, ok := s.transportLabel(); ok {
		q.Set("transport", s.Transport)
	}
	return q
}
