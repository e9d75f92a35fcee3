package analytics

import (
	"strings"

	"github.com/health-analytics-server/internal/domain"
)

// Sentinel values for lab results that cannot be interpreted
const (
	UnknownTest      = "Unknown Test"
	InvalidValue     = "Invalid Value"
	NoReferenceRange = "N/A"
)

var anomalyMarkers = []string{"High", "Low", "Elevated"}

// EvaluateLabValues interprets each lab result against the reference table.
// Output order matches input order.
func EvaluateLabValues(results []domain.LabResult) []domain.LabInterpretation {
	out := make([]domain.LabInterpretation, 0, len(results))
	for _, r := range results {
		out = append(out, interpretLab(r))
	}
	return out
}

func interpretLab(r domain.LabResult) domain.LabInterpretation {
	value, valid := r.Value.Float()
	if !valid {
		value = 0
	}

	interp := domain.LabInterpretation{
		TestName:       r.TestName,
		Value:          value,
		Unit:           r.Unit,
		ReferenceRange: NoReferenceRange,
		Interpretation: UnknownTest,
	}

	ref, ok := LookupReferenceRange(r.TestName, r.Unit)
	if !ok {
		return interp
	}

	interp.ReferenceRange = ref.Formatted()
	if !valid {
		interp.Interpretation = InvalidValue
		return interp
	}

	interp.Interpretation = ref.Interpret(value)
	interp.IsAnomalous = IsAnomalous(interp.Interpretation)
	return interp
}

// IsAnomalous reports whether an interpretation string flags the value. The
// check is textual: any interpretation containing "High", "Low" or "Elevated".
func IsAnomalous(interpretation string) bool {
	for _, marker := range anomalyMarkers {
		if strings.Contains(interpretation, marker) {
			return true
		}
	}
	return false
}
