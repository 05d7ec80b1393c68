package charts

import (
	"encoding/json"
	"math"

	"github.com/wonny/ecorank/backend/internal/supplier"
)

// Config is a Chart.js chart configuration
type Config struct {
	Type    string         `json:"type"`
	Data    Data           `json:"data"`
	Options map[string]any `json:"options,omitempty"`
}

// Data is the Chart.js data block
type Data struct {
	Labels   []string  `json:"labels,omitempty"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is a single Chart.js dataset
type Dataset struct {
	Label           string `json:"label,omitempty"`
	Data            any    `json:"data"`
	BackgroundColor any    `json:"backgroundColor,omitempty"`
	BorderColor     any    `json:"borderColor,omitempty"`
	BorderWidth     int    `json:"borderWidth,omitempty"`
	// Percentages parallels Data and is shown in the doughnut tooltip
	Percentages []float64 `json:"percentages,omitempty"`
}

// JSON encodes the configuration for embedding in a page
func (c Config) JSON() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func axisTitle(text string) map[string]any {
	return map[string]any{"display": true, "text": text}
}

// Config renders the ranking as a bar chart on a 0-100 axis
func (d RankingDataset) Config() Config {
	labels := make([]string, 0, len(d.Bars))
	scores := make([]float64, 0, len(d.Bars))
	fills := make([]string, 0, len(d.Bars))
	borders := make([]string, 0, len(d.Bars))
	for _, b := range d.Bars {
		labels = append(labels, b.Label)
		scores = append(scores, b.Score)
		fills = append(fills, b.Bucket.Fill())
		borders = append(borders, b.Bucket.Border())
	}

	return Config{
		Type: "bar",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:           "Sustainability score",
				Data:            scores,
				BackgroundColor: fills,
				BorderColor:     borders,
				BorderWidth:     1,
			}},
		},
		Options: map[string]any{
			"responsive":          true,
			"maintainAspectRatio": false,
			"scales": map[string]any{
				"y": map[string]any{"beginAtZero": true, "max": 100, "title": axisTitle("Sustainability score (/100)")},
				"x": map[string]any{"ticks": map[string]any{"autoSkip": false, "maxRotation": 45, "minRotation": 45}},
			},
			"plugins": map[string]any{"legend": map[string]any{"display": false}},
		},
	}
}

// Config renders the distribution as a doughnut chart
func (d DistributionDataset) Config() Config {
	labels := make([]string, 0, len(d.Categories))
	counts := make([]int, 0, len(d.Categories))
	colors := make([]string, 0, len(d.Categories))
	shares := make([]float64, 0, len(d.Categories))
	for _, c := range d.Categories {
		labels = append(labels, c.Category)
		counts = append(counts, c.Count)
		colors = append(colors, supplier.TransportColor(c.Category))
		shares = append(shares, math.Round(c.Percent*10)/10)
	}

	return Config{
		Type: "doughnut",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Data:            counts,
				BackgroundColor: colors,
				BorderColor:     "white",
				BorderWidth:     1,
				Percentages:     shares,
			}},
		},
		Options: map[string]any{
			"responsive":          true,
			"maintainAspectRatio": false,
			"plugins": map[string]any{
				"legend": map[string]any{"position": "right", "labels": map[string]any{"boxWidth": 15}},
			},
		},
	}
}

type bubble struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	R     float64  `json:"r"`
	Name  string   `json:"name"`
	Score float64  `json:"score"`
}

// Config renders the scatter as a bubble chart coloured by score bucket
func (d ScatterDataset) Config() Config {
	points := make([]bubble, 0, len(d.Points))
	fills := make([]string, 0, len(d.Points))
	for _, p := range d.Points {
		points = append(points, bubble{X: p.X, Y: p.Y, R: p.R, Name: p.Label, Score: p.Score})
		fills = append(fills, p.Bucket.Fill())
	}

	return Config{
		Type: "bubble",
		Data: Data{
			Datasets: []Dataset{{
				Label:           "Suppliers",
				Data:            points,
				BackgroundColor: fills,
				BorderColor:     "rgba(52, 73, 94, 0.5)",
				BorderWidth:     1,
			}},
		},
		Options: map[string]any{
			"responsive":          true,
			"maintainAspectRatio": false,
			"scales": map[string]any{
				"x": map[string]any{"min": 0, "max": 100, "title": axisTitle("Renewable energy (%)")},
				"y": map[string]any{"beginAtZero": true, "title": axisTitle("Carbon footprint (kgCO₂e)")},
			},
			"plugins": map[string]any{"legend": map[string]any{"display": false}},
		},
	}
}
