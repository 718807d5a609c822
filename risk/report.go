package risk

import (
	"fmt"
	"io"
)

// PrintAssessment writes a human readable summary of a.
func PrintAssessment(w io.Writer, a Assessment) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Risk Assessment")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Risk Score:    %.1f (%s)\n", a.OverallRiskScore, a.RiskLevel)
	fmt.Fprintf(w, "Compliance:    %.1f\n", a.ComplianceScore)
	if a.Partial {
		fmt.Fprintln(w, "Status:        PARTIAL")
	}

	section(w, "Violations", a.Violations)
	section(w, "Warnings", a.Warnings)
	if len(a.Patterns) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Patterns")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, p := range a.Patterns {
			fmt.Fprintf(w, "- %-14s %.2f\n", p.Pattern, p.Confidence)
		}
	}
	section(w, "Recommendations", a.Recommendations)
	fmt.Fprintln(w)
}

func section(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "--------------------------------------------------")
	for _, l := range lines {
		fmt.Fprintf(w, "- %s\n", l)
	}
}
