package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/wonny/ecorank/backend/internal/charts"
	"github.com/wonny/ecorank/backend/internal/supplier"
)

const barWidth = 30

// Terminal prints cards and chart summaries for the snapshot command
type Terminal struct {
	w       io.Writer
	card    func(supplier.Normalized) (string, error)
	buckets map[supplier.Bucket]*color.Color
	bold    *color.Color
	faint   *color.Color
	red     *color.Color
}

// NewTerminal creates a terminal renderer. noColor strips all escape codes.
func NewTerminal(w io.Writer, noColor bool) *Terminal {
	t := &Terminal{
		w: w,
		buckets: map[supplier.Bucket]*color.Color{
			supplier.BucketHigh:   color.New(color.FgGreen, color.Bold),
			supplier.BucketMedium: color.New(color.FgYellow, color.Bold),
			supplier.BucketLow:    color.New(color.FgRed, color.Bold),
		},
		bold:  color.New(color.Bold),
		faint: color.New(color.Faint),
		red:   color.New(color.FgRed),
	}
	t.card = t.formatCard
	if noColor {
		for _, c := range t.buckets {
			c.DisableColor()
		}
		t.bold.DisableColor()
		t.faint.DisableColor()
		t.red.DisableColor()
	}
	return t
}

// Section prints a bold section title
func (t *Terminal) Section(title string) {
	fmt.Fprintf(t.w, "\n%s\n%s\n", t.bold.Sprint(title), strings.Repeat("─", len([]rune(title))))
}

// Error prints a failure message
func (t *Terminal) Error(msg string) {
	fmt.Fprintln(t.w, t.red.Sprint(msg))
}

// Cards prints one block per supplier with the same isolation rules as the
// HTML grid. When every record fails only the global message is printed.
func (t *Terminal) Cards(records []supplier.Normalized) Outcome {
	if len(records) == 0 {
		fmt.Fprintln(t.w, t.faint.Sprint("No supplier matches your criteria. Please adjust your filters."))
		return Outcome{}
	}

	blocks, out := isolate(records, t.card, func(i int, err error) string {
		return t.red.Sprintf("Supplier #%d could not be displayed: %v", i+1, err) + "\n"
	}, nil)

	if out.Errors == len(records) {
		t.Error(AllFailedMessage)
		return out
	}
	for _, block := range blocks {
		fmt.Fprint(t.w, block)
	}
	return out
}

func (t *Terminal) formatCard(rec supplier.Normalized) (string, error) {
	var b strings.Builder
	score := t.buckets[rec.Bucket()].Sprintf("%5s", rec.FormattedScore())
	fmt.Fprintf(&b, "%s  %s  %s\n", score, t.bold.Sprint(rec.Name), t.faint.Sprint(orNotSpecified(rec.Location)))
	fmt.Fprintf(&b, "       renewable %s · carbon %s · water %s · transport %s\n",
		withUnit(rec.RenewablePct, -1, "%"),
		withUnit(rec.CarbonFootprint, 2, " kgCO₂e"),
		withUnit(rec.WaterConsumption, 2, " L"),
		orNotSpecified(rec.Transport))

	certs := "No certification"
	if len(rec.Certifications) > 0 {
		certs = strings.Join(rec.Certifications, ", ")
	}
	fmt.Fprintf(&b, "       %s\n", t.faint.Sprint(certs))
	return b.String(), nil
}

// Chart prints a derived surface, or its placeholder when derivation failed
func (t *Terminal) Chart(surface charts.SurfaceID, d charts.Derived, err error) {
	if err != nil {
		t.ChartUnavailable(surface)
		return
	}
	switch d := d.(type) {
	case charts.RankingDataset:
		t.Ranking(d)
	case charts.DistributionDataset:
		t.Distribution(d)
	case charts.ScatterDataset:
		t.Scatter(d)
	default:
		t.ChartUnavailable(surface)
	}
}

// Ranking prints the score ranking as horizontal bars
func (t *Terminal) Ranking(d charts.RankingDataset) {
	width := labelWidth(len(d.Bars), func(i int) string { return d.Bars[i].Label })
	for _, bar := range d.Bars {
		n := scaled(bar.Score, 100)
		fmt.Fprintf(t.w, "%-*s %s %.1f\n", width, bar.Label,
			t.buckets[bar.Bucket].Sprint(strings.Repeat("█", n)), bar.Score)
	}
}

// Distribution prints the transport breakdown in first-occurrence order
func (t *Terminal) Distribution(d charts.DistributionDataset) {
	width := labelWidth(len(d.Categories), func(i int) string { return d.Categories[i].Category })
	for _, c := range d.Categories {
		fmt.Fprintf(t.w, "%-*s %s %d (%.1f%%)\n", width, c.Category,
			strings.Repeat("▪", scaled(c.Percent, 100)), c.Count, c.Percent)
	}
}

// Scatter prints each supplier's renewable share against its carbon footprint
func (t *Terminal) Scatter(d charts.ScatterDataset) {
	width := labelWidth(len(d.Points), func(i int) string { return d.Points[i].Label })
	for _, p := range d.Points {
		x, y := supplier.NotAvailable, supplier.NotAvailable
		if p.X != nil {
			x = fmt.Sprintf("%g%%", *p.X)
		}
		if p.Y != nil {
			y = fmt.Sprintf("%.2f kgCO₂e", *p.Y)
		}
		fmt.Fprintf(t.w, "%-*s %s renewable %s, carbon %s\n", width, p.Label,
			t.buckets[p.Bucket].Sprint("●"), x, y)
	}
}

// ChartUnavailable prints the per-surface placeholder
func (t *Terminal) ChartUnavailable(surface charts.SurfaceID) {
	fmt.Fprintln(t.w, t.faint.Sprintf("%s: chart unavailable", surface.Title()))
}

// Analysis prints the narrative followed by the podium
func (t *Terminal) Analysis(markdown string, top []supplier.Normalized) {
	fmt.Fprintln(t.w, strings.TrimSpace(markdown))
	if len(top) == 0 {
		return
	}
	fmt.Fprintln(t.w)
	for i, rec := range top {
		fmt.Fprintf(t.w, "%s %s %s\n", Medal(i+1), t.bold.Sprint(rec.Name),
			t.buckets[rec.Bucket()].Sprint(rec.FormattedScore()))
	}
}

func scaled(v, full float64) int {
	if v <= 0 {
		return 0
	}
	n := int(v / full * barWidth)
	if n > barWidth {
		n = barWidth
	}
	return n
}

func labelWidth(n int, label func(int) string) int {
	width := 0
	for i := 0; i < n; i++ {
		if l := len([]rune(label(i))); l > width {
			width = l
		}
	}
	return width
}
