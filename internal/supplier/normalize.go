package supplier

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/ecorank/backend/pkg/logger"
)

// Repair records a field that was defaulted during normalization
type Repair struct {
	Field  string
	Reason string
}

// PlaceholderName is the synthesized name of the supplier at a 0-based index
func PlaceholderName(index int) string {
	return fmt.Sprintf("Supplier #%d", index+1)
}

// Normalize repairs a single record. Each field is handled independently:
// the name falls back to a placeholder, a non-numeric or non-finite score
// becomes 0, and non-numeric metrics become unavailable rather than 0.
// Scores are not clamped to [0,100].
func Normalize(rec Record, index int) (Normalized, []Repair) {
	var repairs []Repair
	out := Normalized{
		ID:             identifier(rec.SupplierID),
		Transport:      text(rec.TransportType),
		Location:       text(rec.Location),
		Certifications: ParseCertifications(rec.EnvironmentalCertifications),
	}

	if name := text(rec.SupplierName); name != "" {
		out.Name = name
	} else {
		out.Name = PlaceholderName(index)
		repairs = append(repairs, Repair{Field: "supplier_name", Reason: "missing or not a string"})
	}

	if score, ok := number(rec.SustainabilityScore); ok {
		out.Score = score
	} else {
		repairs = append(repairs, Repair{Field: "sustainability_score", Reason: "not a finite number, defaulted to 0"})
	}

	metrics := []struct {
		field string
		value any
		dst   *Metric
	}{
		{"renewable_energy_percentage", rec.RenewableEnergyPercentage, &out.RenewablePct},
		{"avg_carbon_footprint", rec.AvgCarbonFootprint, &out.CarbonFootprint},
		{"avg_water_consumption", rec.AvgWaterConsumption, &out.WaterConsumption},
	}
	for _, m := range metrics {
		if v, ok := number(m.value); ok {
			*m.dst = Known(v)
			continue
		}
		repairs = append(repairs, Repair{Field: m.field, Reason: "not a number, shown as " + NotAvailable})
	}

	return out, repairs
}

// ParseCertifications splits a comma-delimited certification list, trimming
// entries and dropping empty ones. Non-string input yields an empty list.
func ParseCertifications(v any) []string {
	s, ok := v.(string)
	if !ok {
		return []string{}
	}

	certs := []string{}
	for _, part := range strings.Split(s, ",") {
		if cert := strings.TrimSpace(part); cert != "" {
			certs = append(certs, cert)
		}
	}
	return certs
}

// Normalizer wraps Normalize with repair logging and panic isolation
type Normalizer struct {
	logger *logger.Logger
}

// NewNormalizer creates a normalizer
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{logger: log.WithComponent("normalizer")}
}

// Normalize never fails: on an unexpected panic the best-effort default
// record (placeholder name, score 0, metrics unavailable) is returned.
func (n *Normalizer) Normalize(rec Record, index int) (out Normalized) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.WithFields(map[string]interface{}{
				"index": index,
				"panic": fmt.Sprint(r),
			}).Error("Supplier normalization panicked, using defaults")
			out = Normalized{Name: PlaceholderName(index), Certifications: []string{}}
		}
	}()

	out, repairs := Normalize(rec, index)
	for _, r := range repairs {
		n.logger.WithFields(map[string]interface{}{
			"index":    index,
			"supplier": out.Name,
			"field":    r.Field,
			"reason":   r.Reason,
		}).Warn("Supplier field repaired")
	}
	return out
}

// NormalizeAll normalizes records in order
func (n *Normalizer) NormalizeAll(recs []Record) []Normalized {
	out := make([]Normalized, 0, len(recs))
	for i, rec := range recs {
		out = append(out, n.Normalize(rec, i))
	}
	return out
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

func identifier(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	}
	if f, ok := number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// number accepts the numeric kinds a decoded or hand-built record can carry.
// Numeric strings are not numbers.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
