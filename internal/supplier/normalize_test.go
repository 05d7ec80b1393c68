package supplier

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ecorank/backend/pkg/config"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

func decodeRecord(t *testing.T, raw string) Record {
	t.Helper()
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func repairedFields(repairs []Repair) []string {
	fields := make([]string, 0, len(repairs))
	for _, r := range repairs {
		fields = append(fields, r.Field)
	}
	return fields
}

func TestNormalize_CompleteRecord(t *testing.T) {
	rec := decodeRecord(t, `{
		"supplier_id": 42,
		"supplier_name": "EcoMaterials Solutions",
		"sustainability_score": 82.7,
		"renewable_energy_percentage": 78.5,
		"avg_carbon_footprint": 12.754,
		"avg_water_consumption": 185.3,
		"transport_type": "Multimodal",
		"location": "Lyon, France",
		"environmental_certifications": "ISO 14001, FSC, LEED"
	}`)

	got, repairs := Normalize(rec, 0)

	assert.Empty(t, repairs)
	assert.Equal(t, "42", got.ID)
	assert.Equal(t, "EcoMaterials Solutions", got.Name)
	assert.Equal(t, 82.7, got.Score)
	assert.Equal(t, Known(78.5), got.RenewablePct)
	assert.Equal(t, "12.75", got.CarbonFootprint.Format(2))
	assert.Equal(t, "Multimodal", got.Transport)
	assert.Equal(t, "Lyon, France", got.Location)
	assert.Equal(t, []string{"ISO 14001", "FSC", "LEED"}, got.Certifications)
	assert.Equal(t, BucketHigh, got.Bucket())
	assert.Equal(t, "82.7", got.FormattedScore())
}

func TestNormalize_MissingName(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		index int
		want  string
	}{
		{"absent", `{}`, 0, "Supplier #1"},
		{"empty string", `{"supplier_name": ""}`, 4, "Supplier #5"},
		{"number", `{"supplier_name": 17}`, 1, "Supplier #2"},
		{"null", `{"supplier_name": null}`, 9, "Supplier #10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repairs := Normalize(decodeRecord(t, tt.raw), tt.index)
			assert.Equal(t, tt.want, got.Name)
			assert.Contains(t, repairedFields(repairs), "supplier_name")
		})
	}
}

func TestNormalize_NonNumericScore(t *testing.T) {
	inputs := []any{nil, "80", true, map[string]any{"v": 1}, math.NaN(), math.Inf(1)}

	for _, in := range inputs {
		got, repairs := Normalize(Record{SupplierName: "A", SustainabilityScore: in}, 0)
		assert.Equal(t, 0.0, got.Score, "input %v", in)
		assert.Contains(t, repairedFields(repairs), "sustainability_score", "input %v", in)
	}
}

func TestNormalize_ScoreNotClamped(t *testing.T) {
	got, repairs := Normalize(Record{SupplierName: "A", SustainabilityScore: 130.0}, 0)
	assert.Equal(t, 130.0, got.Score)
	assert.NotContains(t, repairedFields(repairs), "sustainability_score")

	got, _ = Normalize(Record{SupplierName: "B", SustainabilityScore: -5}, 0)
	assert.Equal(t, -5.0, got.Score)
}

func TestNormalize_MetricsUnavailableNotZero(t *testing.T) {
	rec := decodeRecord(t, `{
		"supplier_name": "A",
		"sustainability_score": 60,
		"renewable_energy_percentage": 0,
		"avg_carbon_footprint": "high",
		"avg_water_consumption": null
	}`)

	got, repairs := Normalize(rec, 0)

	assert.Equal(t, Known(0), got.RenewablePct, "a recorded zero stays a zero")
	assert.Equal(t, "0", got.RenewablePct.Format(-1))
	assert.False(t, got.CarbonFootprint.Valid)
	assert.Equal(t, NotAvailable, got.CarbonFootprint.Format(2))
	assert.False(t, got.WaterConsumption.Valid)
	assert.ElementsMatch(t, []string{"avg_carbon_footprint", "avg_water_consumption"}, repairedFields(repairs))
}

func TestNormalize_Optionals(t *testing.T) {
	got, _ := Normalize(Record{SupplierName: "A", SustainabilityScore: 1.0, TransportType: 3, Location: nil}, 0)
	assert.Empty(t, got.Transport)
	assert.Empty(t, got.Location)
	assert.Empty(t, got.ID)
	assert.NotNil(t, got.Certifications)
	assert.Empty(t, got.Certifications)
}

func TestParseCertifications(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, []string{}},
		{"non string", 12, []string{}},
		{"empty", "", []string{}},
		{"only separators", " , ,, ", []string{}},
		{"trims and keeps order", " FSC ,ISO 14001,, EMAS", []string{"FSC", "ISO 14001", "EMAS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCertifications(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	records := []Record{
		decodeRecord(t, `{"supplier_id":"S-1","supplier_name":"A","sustainability_score":80,"renewable_energy_percentage":55.5,"avg_carbon_footprint":3.2,"avg_water_consumption":100,"transport_type":"Maritime","location":"Oslo","environmental_certifications":"FSC, ISO 14001"}`),
		decodeRecord(t, `{"sustainability_score":"bad","avg_carbon_footprint":null}`),
		{},
	}

	for i, rec := range records {
		first, _ := Normalize(rec, i)
		second, _ := Normalize(first.Record(), i)
		assert.Equal(t, first, second, "record %d", i)
	}
}

func TestNormalizer_LogsRepairs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&config.Config{Env: "development", LogLevel: "warn"}, &buf)

	out := NewNormalizer(log).NormalizeAll([]Record{
		{SupplierName: "Complete", SustainabilityScore: 90.0, RenewableEnergyPercentage: 1.0, AvgCarbonFootprint: 1.0, AvgWaterConsumption: 1.0},
		{SustainabilityScore: "n/a"},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "Supplier #2", out[1].Name)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 5, "name, score and three metrics repaired on the second record")
	assert.Contains(t, buf.String(), `"field":"sustainability_score"`)
	assert.NotContains(t, buf.String(), "Complete")
}

func TestNormalizer_EmptyInput(t *testing.T) {
	out := NewNormalizer(logger.Nop()).NormalizeAll(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
