package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/config"
	"github.com/wonny/ecorank/backend/pkg/httputil"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Source: config.SourceConfig{Timeout: 2 * time.Second}}
	return NewClient(httputil.New(cfg, logger.Nop()), srv.URL+"/", logger.Nop())
}

func TestFetchRecommendations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RecommendationsPath, r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"recommendations": [
				{"supplier_id": 1, "supplier_name": "GreenCo", "sustainability_score": 82.5},
				{"supplier_name": null, "sustainability_score": "n/a"}
			],
			"visualization_data": {"supplier_names": ["GreenCo"]}
		}`))
	})

	resp, err := client.FetchRecommendations(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "GreenCo", resp.Recommendations[0].SupplierName)
	assert.Equal(t, "n/a", resp.Recommendations[1].SustainabilityScore)
	assert.JSONEq(t, `{"supplier_names": ["GreenCo"]}`, string(resp.VisualizationData))
}

func TestFetchRecommendations_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrTransport},
		{"not json", http.StatusOK, `<html>`, ErrShape},
		{"missing key", http.StatusOK, `{"items": []}`, ErrShape},
		{"null list", http.StatusOK, `{"recommendations": null}`, ErrShape},
		{"not an array", http.StatusOK, `{"recommendations": {"a": 1}}`, ErrShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchRecommendations(context.Background(), 5)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, "fetch recommendations", fetchErr.Op)
		})
	}
}

func TestFetchRecommendations_MalformedEntries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recommendations": [
			{"supplier_name": "A", "sustainability_score": 80},
			"garbage",
			42,
			[1, 2],
			null
		]}`))
	})

	resp, err := client.FetchRecommendations(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, resp.Recommendations, 5)
	assert.Equal(t, "A", resp.Recommendations[0].SupplierName)
	assert.Equal(t, 80.0, resp.Recommendations[0].SustainabilityScore)
	for _, rec := range resp.Recommendations[1:] {
		assert.Equal(t, supplier.Record{}, rec)
	}
}

func TestFetchAnalysis_MalformedTopSupplier(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"analysis": "text", "top_suppliers": [{"supplier_name": "A"}, "garbage"]}`))
	})

	resp, err := client.FetchAnalysis(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.TopSuppliers, 2)
	assert.Equal(t, "A", resp.TopSuppliers[0].SupplierName)
	assert.Equal(t, supplier.Record{}, resp.TopSuppliers[1])
}

func TestFetchRecommendations_EmptyList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recommendations": []}`))
	})

	resp, err := client.FetchRecommendations(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, resp.Recommendations)
}

func TestFetchRecommendations_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := &config.Config{Source: config.SourceConfig{Timeout: time.Second}}
	client := NewClient(httputil.New(cfg, logger.Nop()), url, logger.Nop())

	_, err := client.FetchRecommendations(context.Background(), 5)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestFetchAnalysis(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, AnalysisPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"analysis": "# Title", "top_suppliers": [{"supplier_name": "A"}]}`))
	})

	resp, err := client.FetchAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# Title", resp.Analysis)
	require.Len(t, resp.TopSuppliers, 1)
}

func TestFetchAnalysis_MissingKeys(t *testing.T) {
	for _, body := range []string{`{"top_suppliers": []}`, `{"analysis": "x"}`} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		_, err := client.FetchAnalysis(context.Background())
		assert.ErrorIs(t, err, ErrShape, body)
	}
}

func TestFetchSupplier(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SupplierPath + "42":
			_, _ = w.Write([]byte(`{"supplier_id": "42", "supplier_name": "GreenCo"}`))
		case SupplierPath + "empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	})

	rec, err := client.FetchSupplier(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "GreenCo", rec.SupplierName)

	_, err = client.FetchSupplier(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrShape)

	_, err = client.FetchSupplier(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, IsNotFound(err))
}
