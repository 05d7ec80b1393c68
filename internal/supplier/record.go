// Package supplier holds the supplier record as received from the recommendation
// source, its normalized form and the score buckets used for colouring.
package supplier

import (
	"strconv"
	"strings"
)

// NotAvailable is displayed in place of a metric the source did not provide
const NotAvailable = "N/A"

// Record is a supplier as received. Every field is loosely typed because the
// source is not trusted to send well-formed values.
type Record struct {
	SupplierID                  any `json:"supplier_id"`
	SupplierName                any `json:"supplier_name"`
	SustainabilityScore         any `json:"sustainability_score"`
	RenewableEnergyPercentage   any `json:"renewable_energy_percentage"`
	AvgCarbonFootprint          any `json:"avg_carbon_footprint"`
	AvgWaterConsumption         any `json:"avg_water_consumption"`
	TransportType               any `json:"transport_type"`
	Location                    any `json:"location"`
	EnvironmentalCertifications any `json:"environmental_certifications"`
}

// Metric is an informational measurement that may be missing.
// A zero Value with Valid set is a real recorded zero.
type Metric struct {
	Value float64
	Valid bool
}

// Known returns a valid metric
func Known(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// Format renders the metric with the given precision (-1 for shortest) or N/A
func (m Metric) Format(precision int) string {
	if !m.Valid {
		return NotAvailable
	}
	return strconv.FormatFloat(m.Value, 'f', precision, 64)
}

func (m Metric) raw() any {
	if !m.Valid {
		return nil
	}
	return m.Value
}

// Normalized is a supplier record that satisfies the display invariants:
// Name is never empty, Score is always finite, Certifications holds trimmed
// non-empty names in source order.
type Normalized struct {
	ID               string
	Name             string
	Score            float64
	RenewablePct     Metric
	CarbonFootprint  Metric // kgCO2e
	WaterConsumption Metric // liters
	Transport        string // empty when unspecified
	Location         string // empty when unspecified
	Certifications   []string
}

// Bucket returns the score bucket of the supplier
func (n Normalized) Bucket() Bucket {
	return BucketFor(n.Score)
}

// FormattedScore renders the score with one decimal
func (n Normalized) FormattedScore() string {
	return strconv.FormatFloat(n.Score, 'f', 1, 64)
}

// Record converts the normalized supplier back to its wire shape
func (n Normalized) Record() Record {
	rec := Record{
		SupplierName:              n.Name,
		SustainabilityScore:       n.Score,
		RenewableEnergyPercentage: n.RenewablePct.raw(),
		AvgCarbonFootprint:        n.CarbonFootprint.raw(),
		AvgWaterConsumption:       n.WaterConsumption.raw(),
	}
	if n.ID != "" {
		rec.SupplierID = n.ID
	}
	if n.Transport != "" {
		rec.TransportType = n.Transport
	}
	if n.Location != "" {
		rec.Location = n.Location
	}
	if len(n.Certifications) > 0 {
		rec.EnvironmentalCertifications = strings.Join(n.Certifications, ", ")
	}
	return rec
}
