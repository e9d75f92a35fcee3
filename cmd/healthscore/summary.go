package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/health-analytics-server/internal/analytics"
	"github.com/health-analytics-server/internal/domain"
)

var (
	heading = color.New(color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
)

func printBreakdown(w io.Writer, b domain.Breakdown) {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := b[name]
		c := good
		if v < 0 {
			c = bad
		}
		c.Fprintf(w, "  %+7.1f", v)
		fmt.Fprintf(w, "  %s\n", name)
	}
}

func printCredit(w io.Writer, r domain.HealthCreditScoreResult) {
	c := good
	switch {
	case r.Score < 600:
		c = bad
	case r.Score < 700:
		c = warn
	}
	heading.Fprint(w, "Health credit score: ")
	c.Fprintf(w, "%d", r.Score)
	fmt.Fprintf(w, " / %d (%s)\n", analytics.CreditMax, r.Trend)
	fmt.Fprintln(w, r.Explanation)
	printBreakdown(w, r.WeightBreakdown)
}

func printDisease(w io.Writer, r domain.DiseaseRiskResult) {
	status := good
	if r.Status == domain.StatusWarning {
		status = bad
	}
	heading.Fprint(w, "Disease risk: ")
	status.Fprintln(w, string(r.Status))

	fmt.Fprintf(w, "Cardiovascular: %d%%\n", r.CardiovascularPercentage)
	printBreakdown(w, r.CVDBreakdown)
	fmt.Fprintf(w, "Type 2 diabetes: %d%%\n", r.Type2DiabetesPercentage)
	printBreakdown(w, r.T2DBreakdown)
}

func bandColor(band domain.RiskBand) *color.Color {
	switch band {
	case domain.RiskHigh:
		return bad
	case domain.RiskModerate:
		return warn
	default:
		return good
	}
}

func printMental(w io.Writer, r domain.MentalHealthResult) {
	heading.Fprint(w, "Mental score: ")
	fmt.Fprintf(w, "%d / 100, ", r.MentalScore)
	bandColor(r.RiskBand).Fprintf(w, "%s risk\n", r.RiskBand)
	printBreakdown(w, r.Breakdown)
}

func printLifestyle(w io.Writer, r domain.LifestyleResult) {
	c := good
	switch r.Tier {
	case domain.TierHighRisk:
		c = bad
	case domain.TierBalanced:
		c = warn
	}
	heading.Fprint(w, "Lifestyle score: ")
	fmt.Fprintf(w, "%d / 100, ", r.Score)
	c.Fprintln(w, string(r.Tier))
	printBreakdown(w, r.Breakdown)

	if len(r.Recommendations) > 0 {
		heading.Fprintln(w, "Recommendations:")
		for i, rec := range r.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
		}
	}
}

func printGenetic(w io.Writer, results []domain.GeneticRiskResult) {
	heading.Fprintln(w, "Inherited risk:")
	if len(results) == 0 {
		fmt.Fprintln(w, "  No inherited risk found.")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "  %-16s %3d%%  ", r.Condition, r.RiskPercentage)
		bandColor(r.Tier).Fprintln(w, string(r.Tier))
	}
}

func printLabs(w io.Writer, results []domain.LabInterpretation) {
	heading.Fprintln(w, "Lab results:")
	for _, r := range results {
		fmt.Fprintf(w, "  %-22s %8.1f %-8s [%s]  ", r.TestName, r.Value, r.Unit, r.ReferenceRange)
		if r.IsAnomalous {
			bad.Fprintln(w, r.Interpretation)
		} else {
			good.Fprintln(w, r.Interpretation)
		}
	}
}

func printRanges(w io.Writer, ranges []analytics.ReferenceRange) {
	heading.Fprintln(w, "Reference ranges:")
	for _, r := range ranges {
		fmt.Fprintf(w, "  %-24s %s\n", r.TestName, r.Formatted())
	}
}
