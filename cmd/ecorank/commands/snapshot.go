package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/ecorank/backend/internal/analysis"
	"github.com/wonny/ecorank/backend/internal/charts"
	"github.com/wonny/ecorank/backend/internal/filter"
	"github.com/wonny/ecorank/backend/internal/pipeline"
	"github.com/wonny/ecorank/backend/internal/render"
	"github.com/wonny/ecorank/backend/internal/source"
	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the dashboard to the terminal",
	Long: `Fetches recommendations and the analysis once, applies the filter and
prints supplier cards, chart summaries and the narrative.

Example:
  go run ./cmd/ecorank snapshot
  go run ./cmd/ecorank snapshot --min-score 60 --min-renewable 50 --transport rail
  go run ./cmd/ecorank snapshot --preset green-fleet --no-color`,
	RunE: runSnapshot,
}

var (
	snapMinScore     float64
	snapMinRenewable float64
	snapTransport    string
	snapPreset       string
	snapNoColor      bool
	snapSkipAnalysis bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().Float64Var(&snapMinScore, "min-score", 0, "minimum sustainability score")
	snapshotCmd.Flags().Float64Var(&snapMinRenewable, "min-renewable", 0, "minimum renewable energy percentage")
	snapshotCmd.Flags().StringVar(&snapTransport, "transport", "", "transport category (all|electric|hybrid|rail|ship|truck|air)")
	snapshotCmd.Flags().StringVar(&snapPreset, "preset", "", "named filter preset from FILTER_PRESETS_FILE")
	snapshotCmd.Flags().BoolVar(&snapNoColor, "no-color", false, "disable colours")
	snapshotCmd.Flags().BoolVar(&snapSkipAnalysis, "skip-analysis", false, "do not fetch the analysis")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	// Logs go to stderr so stdout stays readable
	cfg, log, err := bootstrap(os.Stderr)
	if err != nil {
		return err
	}

	spec, err := snapshotSpec(cmd, cfg.Dashboard.PresetsFile)
	if err != nil {
		return err
	}

	client := newSourceClient(cfg, log)
	out := render.NewTerminal(os.Stdout, snapNoColor)

	// Recommendations and analysis are independent: fetch both at once
	var (
		recs        source.RecommendationsResponse
		report      source.AnalysisResponse
		analysisErr error
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		recs, err = client.FetchRecommendations(ctx, cfg.Source.RecommendationCount)
		return err
	})
	if !snapSkipAnalysis {
		g.Go(func() error {
			// An analysis failure never hides the recommendations
			report, analysisErr = client.FetchAnalysis(ctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		out.Error(pipeline.FetchFailureMessage)
		return err
	}

	normalizer := supplier.NewNormalizer(log)
	normalized := normalizer.NormalizeAll(recs.Recommendations)
	filtered := filter.Apply(normalized, spec)

	out.Section(fmt.Sprintf("Suppliers (%d of %d)", len(filtered), len(normalized)))
	outcome := out.Cards(filtered)

	printCharts(out, filtered, log)

	if !snapSkipAnalysis {
		out.Section("AI analysis")
		printAnalysis(out, normalizer, report, analysisErr, log)
	}

	log.WithFields(map[string]interface{}{
		"total":    len(normalized),
		"matched":  len(filtered),
		"rendered": outcome.Rendered,
		"errors":   outcome.Errors,
	}).Debug("Snapshot printed")
	return nil
}

// snapshotSpec starts from the preset, then applies the flags that were set
func snapshotSpec(cmd *cobra.Command, presetsFile string) (filter.Spec, error) {
	var spec filter.Spec
	if snapPreset != "" {
		presets, err := filter.LoadPresets(presetsFile)
		if err != nil {
			return spec, err
		}
		if spec, err = presets.Lookup(snapPreset); err != nil {
			return spec, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("min-score") {
		spec.MinScore = snapMinScore
	}
	if flags.Changed("min-renewable") {
		spec.MinRenewable = snapMinRenewable
	}
	if flags.Changed("transport") {
		c, ok := supplier.ParseTransportCategory(snapTransport)
		if !ok {
			return spec, fmt.Errorf("unknown transport category %q", snapTransport)
		}
		spec.Transport = string(c)
	}
	return spec, nil
}

func printCharts(out *render.Terminal, records []supplier.Normalized, log *logger.Logger) {
	for _, surface := range charts.Surfaces() {
		out.Section(surface.Title())
		d, err := charts.DeriveData(surface, records)
		if err != nil && !errors.Is(err, charts.ErrNoData) {
			log.WithError(err).WithField("surface", string(surface)).Warn("Chart derivation failed")
		}
		out.Chart(surface, d, err)
	}
}

func printAnalysis(out *render.Terminal, normalizer *supplier.Normalizer, report source.AnalysisResponse,
	err error, log *logger.Logger) {
	if err != nil {
		log.WithError(err).Warn("Analysis unavailable")
		out.Error(analysis.FailureMessage)
		return
	}

	top := report.TopSuppliers
	if len(top) > analysis.MaxTopSuppliers {
		top = top[:analysis.MaxTopSuppliers]
	}
	out.Analysis(report.Analysis, normalizer.NormalizeAll(top))
}
