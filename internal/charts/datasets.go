// Package charts derives chart-ready datasets from a supplier list and keeps
// at most one live chart per rendering surface.
package charts

import (
	"errors"

	"github.com/wonny/ecorank/backend/internal/supplier"
)

// ErrNoData is returned when there is nothing to chart
var ErrNoData = errors.New("no suppliers to chart")

// Bubble radius range
const (
	MinBubbleRadius = 5.0
	MaxBubbleRadius = 20.0
)

// RankingBar is one supplier in the score ranking
type RankingBar struct {
	Label  string
	Score  float64
	Bucket supplier.Bucket
}

// RankingDataset is one bar per supplier, in input order
type RankingDataset struct {
	Bars []RankingBar
}

// Ranking builds the score ranking. It does not sort.
func Ranking(records []supplier.Normalized) (RankingDataset, error) {
	if len(records) == 0 {
		return RankingDataset{}, ErrNoData
	}

	bars := make([]RankingBar, 0, len(records))
	for _, rec := range records {
		bars = append(bars, RankingBar{
			Label:  rec.Name,
			Score:  rec.Score,
			Bucket: rec.Bucket(),
		})
	}
	return RankingDataset{Bars: bars}, nil
}

// CategoryCount is one transport type and its share of suppliers
type CategoryCount struct {
	Category string
	Count    int
	Percent  float64
}

// DistributionDataset counts suppliers per transport type in first-occurrence order
type DistributionDataset struct {
	Categories []CategoryCount
	Total      int
}

// Counts returns the category counts as a map
func (d DistributionDataset) Counts() map[string]int {
	counts := make(map[string]int, len(d.Categories))
	for _, c := range d.Categories {
		counts[c.Category] = c.Count
	}
	return counts
}

// Distribution groups suppliers by transport type. A missing type is counted
// under supplier.UnspecifiedTransport.
func Distribution(records []supplier.Normalized) (DistributionDataset, error) {
	if len(records) == 0 {
		return DistributionDataset{}, ErrNoData
	}

	index := make(map[string]int)
	var cats []CategoryCount
	for _, rec := range records {
		category := rec.Transport
		if category == "" {
			category = supplier.UnspecifiedTransport
		}
		i, ok := index[category]
		if !ok {
			i = len(cats)
			index[category] = i
			cats = append(cats, CategoryCount{Category: category})
		}
		cats[i].Count++
	}

	total := len(records)
	for i := range cats {
		cats[i].Percent = float64(cats[i].Count) / float64(total) * 100
	}
	return DistributionDataset{Categories: cats, Total: total}, nil
}

// ScatterPoint places a supplier by renewable share (X) and carbon footprint (Y).
// X or Y is nil when the supplier did not report it; such points are not drawn.
type ScatterPoint struct {
	X      *float64
	Y      *float64
	R      float64
	Label  string
	Score  float64
	Bucket supplier.Bucket
}

// ScatterDataset is one point per supplier, in input order
type ScatterDataset struct {
	Points []ScatterPoint
}

// BubbleRadius scales a score linearly from [0,100] onto [5,20]
func BubbleRadius(score float64) float64 {
	return MinBubbleRadius + (score/100)*(MaxBubbleRadius-MinBubbleRadius)
}

// Scatter builds the renewable-versus-carbon bubble dataset
func Scatter(records []supplier.Normalized) (ScatterDataset, error) {
	if len(records) == 0 {
		return ScatterDataset{}, ErrNoData
	}

	points := make([]ScatterPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, ScatterPoint{
			X:      metricPtr(rec.RenewablePct),
			Y:      metricPtr(rec.CarbonFootprint),
			R:      BubbleRadius(rec.Score),
			Label:  rec.Name,
			Score:  rec.Score,
			Bucket: rec.Bucket(),
		})
	}
	return ScatterDataset{Points: points}, nil
}

func metricPtr(m supplier.Metric) *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}
