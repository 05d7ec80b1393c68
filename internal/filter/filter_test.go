package filter

import (
	"encoding/json"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

func fixture() []supplier.Normalized {
	return []supplier.Normalized{
		{Name: "Alpha", Score: 80, RenewablePct: supplier.Known(70), Transport: "Électrique"},
		{Name: "Beta", Score: 40, RenewablePct: supplier.Known(20), Transport: "Maritime"},
		{Name: "Gamma", Score: 50, RenewablePct: supplier.Known(50), Transport: "Ferroviaire"},
		{Name: "Delta", Score: 90, Transport: "Drone"},
		{Name: "Epsilon", Score: 75, RenewablePct: supplier.Known(0)},
	}
}

func names(records []supplier.Normalized) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func TestApply_EmptyInput(t *testing.T) {
	specs := []Spec{{}, {MinScore: 50}, {MinRenewable: 10, Transport: "rail"}}
	for _, spec := range specs {
		assert.Empty(t, Apply([]supplier.Normalized{}, spec))
	}
}

func TestApply_EmptySpecIsIdentity(t *testing.T) {
	records := fixture()
	got := Apply(records, Spec{})

	assert.Equal(t, records, got)
	assert.Same(t, &records[0], &got[0], "empty spec returns the input slice itself")
}

func TestApply_Criteria(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want []string
	}{
		{"min score inclusive", Spec{MinScore: 50}, []string{"Alpha", "Gamma", "Delta", "Epsilon"}},
		{"min renewable inclusive, unavailable excluded", Spec{MinRenewable: 50}, []string{"Alpha", "Gamma"}},
		{"transport category", Spec{Transport: "ship"}, []string{"Beta"}},
		{"transport all is a no-op", Spec{Transport: "all"}, []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}},
		{"unknown transport key is ignored", Spec{Transport: "teleport"}, []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}},
		{"AND of criteria", Spec{MinScore: 45, MinRenewable: 40, Transport: "rail"}, []string{"Gamma"}},
		{"NaN threshold ignored", Spec{MinScore: math.NaN()}, []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}},
		{"nothing matches", Spec{MinScore: 99}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Apply(fixture(), tt.spec)))
		})
	}
}

func TestApply_UnmappedTransportNeverMatchesCategory(t *testing.T) {
	for _, c := range supplier.TransportCategories() {
		got := names(Apply(fixture(), Spec{Transport: string(c)}))
		assert.NotContains(t, got, "Delta", "category %s", c)
		assert.NotContains(t, got, "Epsilon", "category %s", c)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	records := fixture()
	before := fixture()

	Apply(records, Spec{MinScore: 60, Transport: "electric"})

	assert.Equal(t, before, records)
}

func TestApply_Scenario(t *testing.T) {
	normalizer := supplier.NewNormalizer(logger.Nop())
	records := normalizer.NormalizeAll([]supplier.Record{
		{SupplierName: "A", SustainabilityScore: 80.0, TransportType: "Électrique"},
		{SustainabilityScore: 40.0, TransportType: "Maritime"},
	})

	got := Apply(records, Spec{MinScore: 50})

	require.Len(t, got, 1)
	assert.Equal(t, records[0], got[0])
}

func TestParseQuery(t *testing.T) {
	spec := ParseQuery(url.Values{
		"minScore":     {"60"},
		"minRenewable": {"abc"},
		"transport":    {"Hybrid"},
	})
	assert.Equal(t, Spec{MinScore: 60, Transport: "hybrid"}, spec)

	assert.True(t, ParseQuery(url.Values{"transport": {"unknown"}}).IsEmpty())
}

func TestSpecQueryRoundTrip(t *testing.T) {
	spec := Spec{MinScore: 55.5, MinRenewable: 30, Transport: "air"}
	assert.Equal(t, spec, ParseQuery(spec.Query()))
	assert.Empty(t, Spec{Transport: "all"}.Query())
}

func TestSpecJSONMatchesQueryKeys(t *testing.T) {
	spec := Spec{MinScore: 60, MinRenewable: 40, Transport: "rail"}

	raw, err := json.Marshal(spec)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for key := range spec.Query() {
		assert.Contains(t, fields, key)
	}

	var decoded Spec
	require.NoError(t, json.Unmarshal([]byte(`{"minScore": 60, "minRenewable": 40, "transport": "rail"}`), &decoded))
	assert.Equal(t, spec, decoded)
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[presets.green-fleet]
min_score = 60
transport = "electric"

[presets.renewable]
min_renewable = 80
`), 0o600))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"green-fleet", "renewable"}, presets.Names())

	spec, err := presets.Lookup("green-fleet")
	require.NoError(t, err)
	assert.Equal(t, Spec{MinScore: 60, Transport: "electric"}, spec)

	_, err = presets.Lookup("missing")
	assert.Error(t, err)
}

func TestLoadPresets_NoFile(t *testing.T) {
	presets, err := LoadPresets("")
	require.NoError(t, err)
	assert.Empty(t, presets)

	_, err = LoadPresets(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
