package charts

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

// ErrDerivation wraps a panic raised while deriving a dataset
var ErrDerivation = errors.New("chart derivation failed")

// SurfaceID names a rendering target that hosts one chart at a time
type SurfaceID string

const (
	SurfaceSustainability SurfaceID = "sustainabilityChart"
	SurfaceTransport      SurfaceID = "transportChart"
	SurfaceEnergyVsCarbon SurfaceID = "energyVsCarbonChart"
)

// Surfaces lists the dashboard chart surfaces in page order
func Surfaces() []SurfaceID {
	return []SurfaceID{SurfaceSustainability, SurfaceTransport, SurfaceEnergyVsCarbon}
}

// Title is the heading shown above the surface
func (s SurfaceID) Title() string {
	switch s {
	case SurfaceSustainability:
		return "Sustainability scores"
	case SurfaceTransport:
		return "Transport types"
	case SurfaceEnergyVsCarbon:
		return "Renewable energy vs carbon footprint"
	default:
		return string(s)
	}
}

// Derived is a dataset ready to become a Chart.js configuration
type Derived interface {
	Config() Config
}

// DeriveData builds the dataset of a surface. Empty input returns ErrNoData;
// a panic inside the derivation is returned as ErrDerivation.
func DeriveData(surface SurfaceID, records []supplier.Normalized) (d Derived, err error) {
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, fmt.Errorf("%w: %s: %v", ErrDerivation, surface, r)
		}
	}()

	switch surface {
	case SurfaceSustainability:
		return Ranking(records)
	case SurfaceTransport:
		return Distribution(records)
	case SurfaceEnergyVsCarbon:
		return Scatter(records)
	default:
		return nil, fmt.Errorf("unknown chart surface %q", surface)
	}
}

// Derive builds the chart configuration for a surface with the same error
// rules as DeriveData.
func Derive(surface SurfaceID, records []supplier.Normalized) (cfg Config, err error) {
	d, err := DeriveData(surface, records)
	if err != nil {
		return Config{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			cfg, err = Config{}, fmt.Errorf("%w: %s: %v", ErrDerivation, surface, r)
		}
	}()
	return d.Config(), nil
}

// Chart is a live chart bound to a surface
type Chart struct {
	Surface  SurfaceID
	Config   Config
	Revision uint64

	released atomic.Bool
}

// Release frees the chart. Safe to call more than once.
func (c *Chart) Release() {
	c.released.Store(true)
}

// Released reports whether the chart has been released
func (c *Chart) Released() bool {
	return c.released.Load()
}

// Registry owns the live chart of each surface.
// ⭐ SSOT: charts are only created and released through Replace/Clear
type Registry struct {
	mu       sync.Mutex
	live     map[SurfaceID]*Chart
	revision uint64
	logger   *logger.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		live:   make(map[SurfaceID]*Chart),
		logger: log.WithComponent("charts"),
	}
}

// Replace releases the chart currently bound to surface, then installs a new
// one built from cfg. Both steps happen under one lock.
func (r *Registry) Replace(surface SurfaceID, cfg Config) *Chart {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked(surface)

	r.revision++
	chart := &Chart{Surface: surface, Config: cfg, Revision: r.revision}
	r.live[surface] = chart

	r.logger.WithFields(map[string]interface{}{
		"surface":  surface,
		"type":     cfg.Type,
		"revision": chart.Revision,
	}).Debug("Chart installed")

	return chart
}

// Clear releases the chart bound to surface and leaves it empty
func (r *Registry) Clear(surface SurfaceID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked(surface)
}

func (r *Registry) releaseLocked(surface SurfaceID) {
	if prev, ok := r.live[surface]; ok {
		prev.Release()
		delete(r.live, surface)
	}
}

// Get returns the live chart of a surface
func (r *Registry) Get(surface SurfaceID) (*Chart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chart, ok := r.live[surface]
	return chart, ok
}

// Live returns the number of surfaces holding a chart
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.live)
}
