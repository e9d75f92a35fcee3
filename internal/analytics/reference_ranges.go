package analytics

import (
	"strconv"
	"strings"
)

// ReferenceRange is one row of the lab reference table
type ReferenceRange struct {
	TestName string   `json:"testName"`
	Aliases  []string `json:"aliases,omitempty"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Unit     string   `json:"unit"`

	interpret func(value float64) string
}

// Formatted renders the range as "{min} - {max} {unit}".
func (r ReferenceRange) Formatted() string {
	return formatValue(r.Min) + " - " + formatValue(r.Max) + " " + r.Unit
}

// Interpret classifies a value against the range.
func (r ReferenceRange) Interpret(value float64) string {
	if r.interpret != nil {
		return r.interpret(value)
	}
	return bandInterpretation(r.Min, r.Max)(value)
}

// bandInterpretation is the default Low/Normal/High reading for a range
func bandInterpretation(lo, hi float64) func(float64) string {
	return func(v float64) string {
		switch {
		case v < lo:
			return "Low"
		case v > hi:
			return "High"
		default:
			return "Normal"
		}
	}
}

// referenceTable is the authoritative adult reference table. Names and aliases
// are lowercase.
var referenceTable = []ReferenceRange{
	// ===== GLUCOSE METABOLISM =====
	{
		TestName: "fasting blood sugar", Aliases: []string{"fasting glucose", "fasting blood glucose", "fbs", "blood sugar", "glucose"},
		Min: 70, Max: 100, Unit: "mg/dL",
		interpret: func(v float64) string {
			switch {
			case v < 70:
				return "Hypoglycemia (Low)"
			case v > 125:
				return "Diabetes Range (High)"
			case v >= 100:
				return "Prediabetes Range (Elevated)"
			default:
				return "Normal"
			}
		},
	},
	{
		TestName: "hba1c", Aliases: []string{"a1c", "hemoglobin a1c", "glycated hemoglobin"},
		Min: 4, Max: 5.7, Unit: "%",
		interpret: func(v float64) string {
			switch {
			case v < 4:
				return "Low"
			case v >= 6.5:
				return "Diabetes Range (High)"
			case v >= 5.7:
				return "Prediabetes Range (Elevated)"
			default:
				return "Normal"
			}
		},
	},

	// ===== LIPID PANEL (mg/dL) =====
	{
		TestName: "hdl cholesterol", Aliases: []string{"hdl", "hdl-c"},
		Min: 40, Max: 60, Unit: "mg/dL",
		interpret: func(v float64) string {
			switch {
			case v < 40:
				return "Low (Increased Heart Risk)"
			case v > 60:
				return "Protective Level"
			default:
				return "Normal"
			}
		},
	},
	{
		TestName: "ldl cholesterol", Aliases: []string{"ldl", "ldl-c"},
		Min: 0, Max: 100, Unit: "mg/dL",
		interpret: func(v float64) string {
			switch {
			case v < 100:
				return "Optimal"
			case v < 130:
				return "Near Optimal"
			case v < 160:
				return "Borderline High"
			case v < 190:
				return "High"
			default:
				return "Very High"
			}
		},
	},
	{
		TestName: "total cholesterol", Aliases: []string{"cholesterol"},
		Min: 125, Max: 200, Unit: "mg/dL",
		interpret: func(v float64) string {
			switch {
			case v < 125:
				return "Low"
			case v < 200:
				return "Desirable"
			case v < 240:
				return "Borderline High"
			default:
				return "High"
			}
		},
	},
	{
		TestName: "triglycerides", Aliases: []string{"triglyceride"},
		Min: 0, Max: 150, Unit: "mg/dL",
		interpret: func(v float64) string {
			switch {
			case v < 150:
				return "Normal"
			case v < 200:
				return "Borderline High"
			case v < 500:
				return "High"
			default:
				return "Very High"
			}
		},
	},

	// ===== BLOOD COUNT =====
	{
		TestName: "hemoglobin", Aliases: []string{"hgb", "haemoglobin"},
		Min: 12, Max: 17.5, Unit: "g/dL",
	},

	// ===== THYROID =====
	{
		TestName: "tsh", Aliases: []string{"thyroid stimulating hormone"},
		Min: 0.4, Max: 4.0, Unit: "mIU/L",
		interpret: func(v float64) string {
			switch {
			case v < 0.4:
				return "Low (Possible Hyperthyroidism)"
			case v > 4.0:
				return "High (Possible Hypothyroidism)"
			default:
				return "Normal"
			}
		},
	},

	// ===== VITAMINS =====
	{
		TestName: "vitamin d", Aliases: []string{"25-hydroxy vitamin d", "vitamin d3", "25(oh)d"},
		Min: 30, Max: 100, Unit: "ng/mL",
		interpret: func(v float64) string {
			switch {
			case v < 20:
				return "Deficient (Low)"
			case v < 30:
				return "Insufficient (Low)"
			case v > 100:
				return "High"
			default:
				return "Normal"
			}
		},
	},

	// ===== KIDNEY AND LIVER =====
	{
		TestName: "creatinine", Aliases: []string{"serum creatinine"},
		Min: 0.6, Max: 1.3, Unit: "mg/dL",
	},
	{
		TestName: "alt", Aliases: []string{"alanine aminotransferase", "sgpt"},
		Min: 7, Max: 56, Unit: "U/L",
		interpret: func(v float64) string {
			switch {
			case v < 7:
				return "Low"
			case v > 56:
				return "Elevated"
			default:
				return "Normal"
			}
		},
	},
}

var referenceIndex = buildReferenceIndex()

func buildReferenceIndex() map[string]int {
	index := make(map[string]int, len(referenceTable)*3)
	for i, r := range referenceTable {
		index[r.TestName] = i
		for _, alias := range r.Aliases {
			index[alias] = i
		}
	}
	return index
}

// ReferenceRanges returns a copy of the reference table for display.
func ReferenceRanges() []ReferenceRange {
	out := make([]ReferenceRange, len(referenceTable))
	for i, r := range referenceTable {
		r.Aliases = append([]string(nil), r.Aliases...)
		out[i] = r
	}
	return out
}

// LookupReferenceRange finds the range for a test. It tries the exact
// lowercased name or alias first, then falls back on the unit: the longest
// name or alias contained in the test name among ranges sharing the unit,
// then the only range with that unit if exactly one exists.
func LookupReferenceRange(testName, unit string) (ReferenceRange, bool) {
	name := strings.ToLower(strings.TrimSpace(testName))
	if i, ok := referenceIndex[name]; ok {
		return referenceTable[i], true
	}

	unit = strings.TrimSpace(unit)
	if unit == "" {
		return ReferenceRange{}, false
	}

	best, bestLen := -1, 0
	sameUnit := make([]int, 0, 2)
	for i, r := range referenceTable {
		if !strings.EqualFold(r.Unit, unit) {
			continue
		}
		sameUnit = append(sameUnit, i)
		if name == "" {
			continue
		}
		for _, key := range append([]string{r.TestName}, r.Aliases...) {
			if len(key) > bestLen && strings.Contains(name, key) {
				best, bestLen = i, len(key)
			}
		}
	}

	switch {
	case best >= 0:
		return referenceTable[best], true
	case len(sameUnit) == 1:
		return referenceTable[sameUnit[0]], true
	default:
		return ReferenceRange{}, false
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
