package analytics

import (
	"strings"

	"github.com/health-analytics-server/internal/domain"
)

type geneticCategory struct {
	condition string
	keywords  []string
}

// Checked in order; a condition string counts toward the first match only.
var geneticCategories = []geneticCategory{
	{condition: "Type 2 Diabetes", keywords: []string{"diabetes"}},
	{condition: "Heart Disease", keywords: []string{"heart"}},
	{condition: "Cancer", keywords: []string{"cancer"}},
	{condition: "Hypertension", keywords: []string{"blood pressure", "hypertension"}},
}

// RelationWeight returns the inherited-risk weight of a relative.
func RelationWeight(relation string) float64 {
	switch strings.ToLower(strings.TrimSpace(relation)) {
	case "parent":
		return 30
	case "grandparent":
		return 15
	default:
		return 10
	}
}

// EvaluateGeneticRisk aggregates family-tree conditions into per-category
// risk. Categories with no contribution are omitted.
func EvaluateGeneticRisk(familyTree []domain.FamilyMember) []domain.GeneticRiskResult {
	totals := make([]float64, len(geneticCategories))

	for _, member := range familyTree {
		weight := RelationWeight(member.Relation)
		for _, condition := range member.Conditions {
			if idx := matchCategory(condition); idx >= 0 {
				totals[idx] += weight
			}
		}
	}

	results := make([]domain.GeneticRiskResult, 0, len(geneticCategories))
	for i, category := range geneticCategories {
		if totals[i] == 0 {
			continue
		}
		risk := Round(Clamp(totals[i], 0, 100))
		results = append(results, domain.GeneticRiskResult{
			Condition:      category.condition,
			RiskPercentage: risk,
			Tier:           geneticTier(risk),
		})
	}
	return results
}

func matchCategory(condition string) int {
	text := strings.ToLower(condition)
	for i, category := range geneticCategories {
		for _, keyword := range category.keywords {
			if strings.Contains(text, keyword) {
				return i
			}
		}
	}
	return -1
}

func geneticTier(risk int) domain.RiskBand {
	switch {
	case risk >= 60:
		return domain.RiskHigh
	case risk >= 30:
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}
