package supplier

import "strings"

// TransportCategory is the filter key of a transport mode
type TransportCategory string

const (
	TransportAll      TransportCategory = "all"
	TransportElectric TransportCategory = "electric"
	TransportHybrid   TransportCategory = "hybrid"
	TransportRail     TransportCategory = "rail"
	TransportShip     TransportCategory = "ship"
	TransportTruck    TransportCategory = "truck"
	TransportAir      TransportCategory = "air"
)

// UnspecifiedTransport labels suppliers without a transport type
const UnspecifiedTransport = "Unspecified"

// DefaultTransportColor is used for any transport label without a fixed colour
const DefaultTransportColor = "rgba(189, 195, 199, 0.7)"

// transportLabels maps filter keys to the labels the source emits
var transportLabels = map[TransportCategory]string{
	TransportElectric: "Électrique",
	TransportHybrid:   "Hybride",
	TransportRail:     "Ferroviaire",
	TransportShip:     "Maritime",
	TransportTruck:    "Camionnage",
	TransportAir:      "Aérien",
}

var transportColors = map[string]string{
	"Électrique":         "rgba(46, 204, 113, 0.7)",
	"Hybride":            "rgba(241, 196, 15, 0.7)",
	"Ferroviaire":        "rgba(52, 152, 219, 0.7)",
	"Maritime":           "rgba(155, 89, 182, 0.7)",
	"Camionnage":         "rgba(230, 126, 34, 0.7)",
	"Aérien":             "rgba(231, 76, 60, 0.7)",
	"Multimodal":         "rgba(52, 73, 94, 0.7)",
	UnspecifiedTransport: DefaultTransportColor,
}

// TransportCategories lists the selectable categories in display order
func TransportCategories() []TransportCategory {
	return []TransportCategory{
		TransportElectric, TransportHybrid, TransportRail,
		TransportShip, TransportTruck, TransportAir,
	}
}

// ParseTransportCategory accepts "all" or a known category key, case-insensitively
func ParseTransportCategory(s string) (TransportCategory, bool) {
	c := TransportCategory(strings.ToLower(strings.TrimSpace(s)))
	if c == TransportAll {
		return c, true
	}
	_, ok := transportLabels[c]
	return c, ok
}

// Label returns the source label of the category
func (c TransportCategory) Label() (string, bool) {
	label, ok := transportLabels[c]
	return label, ok
}

// TransportColor returns the chart colour for a transport label.
// The label set is open: unknown labels get DefaultTransportColor.
func TransportColor(label string) string {
	if c, ok := transportColors[label]; ok {
		return c
	}
	return DefaultTransportColor
}
