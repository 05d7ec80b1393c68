// Package render turns normalized suppliers into HTML cards and terminal output.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"github.com/wonny/ecorank/backend/internal/supplier"
)

// NotSpecified replaces an empty location or transport type on a card
const NotSpecified = "Not specified"

// medals decorate ranks 1 to 3
var medals = []string{"🥇", "🥈", "🥉"}

// Medal returns the decoration of a 1-based rank, empty beyond the podium
func Medal(rank int) string {
	if rank < 1 || rank > len(medals) {
		return ""
	}
	return medals[rank-1]
}

type cardView struct {
	ID             string
	Name           string
	Score          string
	Bucket         supplier.Bucket
	Location       string
	Renewable      string
	Carbon         string
	Water          string
	Transport      string
	Certifications []string
	DetailsURL     string
}

type topCardView struct {
	cardView
	Rank  int
	Medal string
	Fill  template.CSS
}

func newCardView(rec supplier.Normalized) cardView {
	v := cardView{
		ID:             rec.ID,
		Name:           rec.Name,
		Score:          rec.FormattedScore(),
		Bucket:         rec.Bucket(),
		Location:       orNotSpecified(rec.Location),
		Renewable:      withUnit(rec.RenewablePct, -1, "%"),
		Carbon:         withUnit(rec.CarbonFootprint, 2, " kgCO₂e"),
		Water:          withUnit(rec.WaterConsumption, 2, " L"),
		Transport:      orNotSpecified(rec.Transport),
		Certifications: rec.Certifications,
	}
	if rec.ID != "" {
		v.DetailsURL = DetailsPath(rec.ID)
	}
	return v
}

// DetailsPath is the dashboard page of one supplier
func DetailsPath(id string) string {
	return "/details/" + url.PathEscape(id)
}

// Card renders one supplier card
func Card(rec supplier.Normalized) (template.HTML, error) {
	return execute("card", newCardView(rec))
}

// TopCard renders a podium card for the analysis panel. rank is 1-based.
func TopCard(rec supplier.Normalized, rank int) (template.HTML, error) {
	return execute("top-card", topCardView{
		cardView: newCardView(rec),
		Rank:     rank,
		Medal:    Medal(rank),
		Fill:     template.CSS(rec.Bucket().Fill()),
	})
}

func withUnit(m supplier.Metric, precision int, unit string) string {
	if !m.Valid {
		return supplier.NotAvailable
	}
	return m.Format(precision) + unit
}

func orNotSpecified(s string) string {
	if s == "" {
		return NotSpecified
	}
	return s
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := cardTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	// html/template has already escaped every value
	return template.HTML(buf.String()), nil //nolint:gosec
}
