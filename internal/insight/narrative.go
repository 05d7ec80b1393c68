// Package insight writes the markdown sustainability narrative served by
// /api/llm_analysis. The text is templated from the supplier figures.
package insight

import (
	"fmt"
	"strings"

	"github.com/wonny/ecorank/backend/internal/store"
)

// NoData is the narrative for an empty supplier list
const NoData = "No data available for analysis."

// TopCount is the number of suppliers returned next to the narrative
const TopCount = 3

// renewableTarget is the share above which suppliers are recommended
const renewableTarget = 60

// Summary holds the figures the narrative quotes
type Summary struct {
	Suppliers       int
	AverageScore    float64
	AverageRenew    float64
	RenewReported   int
	Leader          string
	LeaderScore     float64
	BelowMedium     int
	WithCertificate int
}

// Summarize computes the narrative figures. suppliers must be ordered best first.
// Missing scores count as 0; missing renewable shares are left out of the average.
func Summarize(suppliers []store.Supplier) Summary {
	s := Summary{Suppliers: len(suppliers)}
	if len(suppliers) == 0 {
		return s
	}

	var scoreSum, renewSum float64
	for _, sup := range suppliers {
		score := 0.0
		if sup.Score != nil {
			score = *sup.Score
		}
		scoreSum += score
		if score < 50 {
			s.BelowMedium++
		}
		if sup.RenewablePct != nil {
			renewSum += *sup.RenewablePct
			s.RenewReported++
		}
		if sup.Certifications != nil && strings.TrimSpace(*sup.Certifications) != "" {
			s.WithCertificate++
		}
	}

	s.AverageScore = scoreSum / float64(len(suppliers))
	if s.RenewReported > 0 {
		s.AverageRenew = renewSum / float64(s.RenewReported)
	}

	s.Leader = suppliers[0].Name
	if suppliers[0].Score != nil {
		s.LeaderScore = *suppliers[0].Score
	}
	return s
}

// Narrative renders the markdown analysis
func Narrative(suppliers []store.Supplier) string {
	if len(suppliers) == 0 {
		return NoData
	}
	s := Summarize(suppliers)

	var b strings.Builder
	b.WriteString("# Supplier sustainability analysis\n\n")

	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "Across %d suppliers the average sustainability score is %.2f/100, led by %s with %.2f/100.\n\n",
		s.Suppliers, s.AverageScore, s.Leader, s.LeaderScore)

	b.WriteString("## Key points\n\n")
	if s.RenewReported > 0 {
		fmt.Fprintf(&b, "1. **Renewable energy**: suppliers run on %.2f%% renewable energy on average. "+
			"Favour partners above %d%% to lower the carbon footprint of the supply chain.\n\n",
			s.AverageRenew, renewableTarget)
	} else {
		b.WriteString("1. **Renewable energy**: no supplier reported its renewable energy share. " +
			"Request it before the next review.\n\n")
	}
	fmt.Fprintf(&b, "2. **Environmental certifications**: %d of %d suppliers hold at least one certification. "+
		"Set a minimum certification standard for every supplier.\n\n", s.WithCertificate, s.Suppliers)
	b.WriteString("3. **Transport and logistics**: the transport mode weighs heavily on each supplier's footprint. " +
		"Encourage electric or hybrid transport.\n\n")

	b.WriteString("## Strategic recommendations\n\n")
	if s.BelowMedium > 0 {
		fmt.Fprintf(&b, "* **Short term**: open improvement plans with the %d supplier(s) scoring below 50.\n", s.BelowMedium)
	} else {
		b.WriteString("* **Short term**: keep every supplier above 50 with a yearly score review.\n")
	}
	b.WriteString("* **Medium term**: reward suppliers that improve their sustainable practices.\n")
	b.WriteString("* **Long term**: add measurable sustainability clauses to every new supplier contract.\n")

	return b.String()
}

// Top returns the first TopCount suppliers
func Top(suppliers []store.Supplier) []store.Supplier {
	if len(suppliers) > TopCount {
		return suppliers[:TopCount]
	}
	return suppliers
}
