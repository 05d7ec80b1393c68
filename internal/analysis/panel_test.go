package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ecorank/backend/internal/source"
	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

type fetcherFunc func(ctx context.Context) (source.AnalysisResponse, error)

func (f fetcherFunc) FetchAnalysis(ctx context.Context) (source.AnalysisResponse, error) {
	return f(ctx)
}

func newPanel(f fetcherFunc) *Panel {
	return NewPanel(f, supplier.NewNormalizer(logger.Nop()), logger.Nop())
}

const narrative = `# Supplier sustainability analysis

## Overview
Average score is **72.40**/100.

1. *Renewable energy*
2. Certifications

<script>alert("x")</script>

[click](javascript:alert(1))
`

func TestPanel_InitiallyClosed(t *testing.T) {
	p := newPanel(nil)
	assert.Equal(t, StateClosed, p.View().State)
}

func TestPanel_OpenLoaded(t *testing.T) {
	top := []supplier.Record{
		{SupplierName: "Gold", SustainabilityScore: 91.0, RenewableEnergyPercentage: 88.0, AvgCarbonFootprint: 2.5},
		{SupplierName: "Silver", SustainabilityScore: 70.0},
		{SustainabilityScore: "bad"},
		{SupplierName: "Fourth", SustainabilityScore: 40.0},
	}
	p := newPanel(func(context.Context) (source.AnalysisResponse, error) {
		return source.AnalysisResponse{Analysis: narrative, TopSuppliers: top}, nil
	})

	view := p.Open(context.Background())

	assert.Equal(t, StateLoaded, view.State)
	assert.Empty(t, view.Error)
	assert.Equal(t, view, p.View())

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(view.Narrative)))
	require.NoError(t, err)
	assert.Equal(t, "Supplier sustainability analysis", doc.Find("h1").Text())
	assert.Equal(t, "Overview", doc.Find("h2").Text())
	assert.Equal(t, "72.40", doc.Find("strong").Text())
	assert.Equal(t, 2, doc.Find("ol li").Length())
	assert.Equal(t, 0, doc.Find("script").Length(), "raw HTML is not rendered")
	href, _ := doc.Find("a").Attr("href")
	assert.NotContains(t, href, "javascript:")

	require.Len(t, view.Top, MaxTopSuppliers)
	assert.Equal(t, []string{"🥇", "🥈", "🥉"}, []string{view.Top[0].Medal, view.Top[1].Medal, view.Top[2].Medal})
	assert.Equal(t, "Gold", view.Top[0].Supplier.Name)
	assert.Equal(t, supplier.PlaceholderName(2), view.Top[2].Supplier.Name)
	assert.Equal(t, 0.0, view.Top[2].Supplier.Score)
	assert.Contains(t, string(view.Top[0].HTML), "Gold")
}

func TestPanel_OpenFailed(t *testing.T) {
	calls := 0
	p := newPanel(func(context.Context) (source.AnalysisResponse, error) {
		calls++
		return source.AnalysisResponse{}, &source.FetchError{Op: "fetch analysis", Kind: source.ErrTransport, Err: errors.New("refused")}
	})

	view := p.Open(context.Background())

	assert.Equal(t, StateFailed, view.State)
	assert.Equal(t, FailureMessage, view.Error)
	assert.Empty(t, view.Narrative)
	assert.Empty(t, view.Top)
	assert.Equal(t, 1, calls, "no automatic retry")
	assert.Equal(t, StateFailed, p.View().State, "panel stays open")

	p.Open(context.Background())
	assert.Equal(t, 2, calls, "reopening retries")
}

func TestPanel_CloseDiscardsInFlight(t *testing.T) {
	var p *Panel
	p = newPanel(func(context.Context) (source.AnalysisResponse, error) {
		p.Close()
		return source.AnalysisResponse{Analysis: "late"}, nil
	})

	view := p.Open(context.Background())

	assert.Equal(t, StateClosed, view.State)
	assert.Equal(t, StateClosed, p.View().State)
}

func TestPanel_LoadingWhileFetching(t *testing.T) {
	var during State
	var p *Panel
	p = newPanel(func(context.Context) (source.AnalysisResponse, error) {
		during = p.View().State
		return source.AnalysisResponse{Analysis: "ok"}, nil
	})

	p.Open(context.Background())

	assert.Equal(t, StateLoading, during)
}

func TestPanel_EmptyPodium(t *testing.T) {
	p := newPanel(func(context.Context) (source.AnalysisResponse, error) {
		return source.AnalysisResponse{Analysis: "No data available for analysis.", TopSuppliers: []supplier.Record{}}, nil
	})

	view := p.Open(context.Background())

	assert.Equal(t, StateLoaded, view.State)
	assert.Empty(t, view.Top)
	assert.Contains(t, string(view.Narrative), "No data available")
}
