// Package source is the client of the upstream recommendation API.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/httputil"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

// Upstream paths
const (
	RecommendationsPath = "/api/recommendations"
	AnalysisPath        = "/api/llm_analysis"
	SupplierPath        = "/api/supplier_details/"
)

// RecommendationsResponse is the body of GET /api/recommendations
type RecommendationsResponse struct {
	Recommendations   []supplier.Record
	VisualizationData json.RawMessage // opaque, not used for charting
}

// AnalysisResponse is the body of GET /api/llm_analysis
type AnalysisResponse struct {
	Analysis     string // markdown
	TopSuppliers []supplier.Record
}

// Record lists are decoded element by element so one malformed entry does
// not reject the whole payload.
type recommendationsBody struct {
	Recommendations   *[]json.RawMessage `json:"recommendations"`
	VisualizationData json.RawMessage    `json:"visualization_data,omitempty"`
}

type analysisBody struct {
	Analysis     *string            `json:"analysis"`
	TopSuppliers *[]json.RawMessage `json:"top_suppliers"`
}

// Client fetches recommendations and the analysis narrative.
// Every call is a single attempt; the caller decides whether to try again.
// ⭐ SSOT: the upstream API is only called from this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new upstream client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("source"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchRecommendations fetches up to count supplier records
func (c *Client) FetchRecommendations(ctx context.Context, count int) (RecommendationsResponse, error) {
	const op = "fetch recommendations"

	params := url.Values{}
	params.Set("count", strconv.Itoa(count))

	var body recommendationsBody
	if err := c.getJSON(ctx, op, RecommendationsPath+"?"+params.Encode(), &body); err != nil {
		return RecommendationsResponse{}, err
	}
	if body.Recommendations == nil {
		return RecommendationsResponse{}, c.shapeError(op, errors.New(`missing "recommendations" array`))
	}

	c.logger.WithField("count", len(*body.Recommendations)).Debug("Recommendations fetched")

	return RecommendationsResponse{
		Recommendations:   c.decodeRecords(op, *body.Recommendations),
		VisualizationData: body.VisualizationData,
	}, nil
}

// FetchAnalysis fetches the narrative and its top suppliers
func (c *Client) FetchAnalysis(ctx context.Context) (AnalysisResponse, error) {
	const op = "fetch analysis"

	var body analysisBody
	if err := c.getJSON(ctx, op, AnalysisPath, &body); err != nil {
		return AnalysisResponse{}, err
	}
	if body.Analysis == nil {
		return AnalysisResponse{}, c.shapeError(op, errors.New(`missing "analysis" text`))
	}
	if body.TopSuppliers == nil {
		return AnalysisResponse{}, c.shapeError(op, errors.New(`missing "top_suppliers" array`))
	}

	return AnalysisResponse{
		Analysis:     *body.Analysis,
		TopSuppliers: c.decodeRecords(op, *body.TopSuppliers),
	}, nil
}

// FetchSupplier fetches a single supplier record
func (c *Client) FetchSupplier(ctx context.Context, id string) (supplier.Record, error) {
	const op = "fetch supplier"

	var rec supplier.Record
	if err := c.getJSON(ctx, op, SupplierPath+url.PathEscape(id), &rec); err != nil {
		return supplier.Record{}, err
	}
	if rec.SupplierID == nil && rec.SupplierName == nil {
		return supplier.Record{}, c.shapeError(op, errors.New("record has neither id nor name"))
	}
	return rec, nil
}

// decodeRecords keeps positions stable: an entry that is not a JSON object
// becomes an empty record and is repaired by the normalizer like any other.
func (c *Client) decodeRecords(op string, items []json.RawMessage) []supplier.Record {
	records := make([]supplier.Record, 0, len(items))
	for i, item := range items {
		var rec supplier.Record
		if err := json.Unmarshal(item, &rec); err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"op":    op,
				"index": i,
			}).Warn("Malformed supplier record, using defaults")
			rec = supplier.Record{}
		}
		records = append(records, rec)
	}
	return records
}

func (c *Client) getJSON(ctx context.Context, op, path string, dest interface{}) error {
	err := c.httpClient.GetJSON(ctx, c.baseURL+path, dest)
	if err == nil {
		return nil
	}

	kind := ErrTransport
	if errors.Is(err, httputil.ErrDecode) {
		kind = ErrShape
	}

	fetchErr := &FetchError{Op: op, Kind: kind, Err: err}
	c.logger.WithError(fetchErr).Warn("Upstream request failed")
	return fetchErr
}

func (c *Client) shapeError(op string, err error) error {
	fetchErr := &FetchError{Op: op, Kind: ErrShape, Err: err}
	c.logger.WithError(fetchErr).Warn("Upstream response has an unexpected shape")
	return fetchErr
}
