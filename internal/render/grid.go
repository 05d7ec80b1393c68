package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

// Outcome counts the results of one render pass
type Outcome struct {
	Rendered int `json:"renderedCount"`
	Errors   int `json:"errorCount"`
}

// AllFailedMessage replaces the card area when no record could be rendered
const AllFailedMessage = "Suppliers cannot be displayed because of data format errors."

// GridState tells what the card area shows
type GridState string

const (
	GridCards  GridState = "cards"  // at least one card rendered
	GridEmpty  GridState = "empty"  // no records, "no results" placeholder
	GridFailed GridState = "failed" // every record failed, global message
)

// Grid is the rendered card area
type Grid struct {
	State   GridState
	HTML    template.HTML
	Outcome Outcome
}

// CardFunc builds the markup of one supplier card
type CardFunc func(rec supplier.Normalized) (template.HTML, error)

// Option configures a CardRenderer
type Option func(*CardRenderer)

// WithCardFunc replaces the card builder
func WithCardFunc(fn CardFunc) Option {
	return func(r *CardRenderer) {
		r.build = fn
	}
}

// CardRenderer renders supplier cards with per-record failure isolation
type CardRenderer struct {
	build  CardFunc
	logger *logger.Logger
}

// NewCardRenderer creates a renderer using Card unless overridden
func NewCardRenderer(log *logger.Logger, opts ...Option) *CardRenderer {
	r := &CardRenderer{
		build:  Card,
		logger: log.WithComponent("render"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders every record independently. A failing record is logged and
// counted; only the first failure produces a diagnostic card. When every
// record fails the whole area is replaced by one global message.
func (r *CardRenderer) Render(records []supplier.Normalized) Grid {
	if len(records) == 0 {
		return Grid{State: GridEmpty, HTML: r.static("empty", nil)}
	}

	parts, out := isolate[template.HTML](records, r.build,
		func(_ int, err error) template.HTML {
			return r.static("diagnostic", err.Error())
		},
		func(i int, rec supplier.Normalized, err error) {
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"index":    i,
				"supplier": rec.Name,
			}).Error("Failed to render supplier card")
		})

	if out.Errors == len(records) {
		r.logger.WithField("errors", out.Errors).Error("No supplier card could be rendered")
		return Grid{State: GridFailed, HTML: r.static("failed", AllFailedMessage), Outcome: out}
	}

	if out.Errors > 0 {
		r.logger.WithFields(map[string]interface{}{
			"rendered": out.Rendered,
			"errors":   out.Errors,
		}).Warn("Supplier cards rendered with errors")
	}

	var b strings.Builder
	for _, part := range parts {
		b.WriteString(string(part))
	}
	return Grid{
		State:   GridCards,
		HTML:    template.HTML(b.String()), //nolint:gosec // concatenation of escaped cards
		Outcome: out,
	}
}

// isolate builds every record on its own, in order. A failure, returned or
// panicked, is counted and passed to onError; only the first one leaves a
// diagnose entry in the output.
func isolate[T any](records []supplier.Normalized, build func(supplier.Normalized) (T, error),
	diagnose func(index int, err error) T, onError func(index int, rec supplier.Normalized, err error)) ([]T, Outcome) {
	parts := make([]T, 0, len(records))
	var out Outcome
	for i, rec := range records {
		part, err := buildSafe(build, rec)
		if err != nil {
			out.Errors++
			if onError != nil {
				onError(i, rec, err)
			}
			if out.Errors == 1 {
				parts = append(parts, diagnose(i, err))
			}
			continue
		}
		out.Rendered++
		parts = append(parts, part)
	}
	return parts, out
}

func buildSafe[T any](build func(supplier.Normalized) (T, error), rec supplier.Normalized) (part T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("card builder panicked: %v", p)
		}
	}()
	return build(rec)
}

// static renders one of the fixed templates. They take no untrusted
// structure, so a failure here is a programming error and yields empty markup.
func (r *CardRenderer) static(name string, data any) template.HTML {
	html, err := execute(name, data)
	if err != nil {
		r.logger.WithError(err).Error("Failed to render template")
		return ""
	}
	return html
}
