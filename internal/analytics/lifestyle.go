package analytics

import (
	"strings"

	"github.com/health-analytics-server/internal/domain"
)

const lifestyleBaseline = 50

// Lifestyle recommendations, appended in evaluation order
const (
	RecommendMeals        = "Aim for at least three balanced meals a day to keep your energy steady."
	RecommendHydrationLow = "Critical: your water intake is very low. Drink at least 8 glasses of water a day."
	RecommendHydrationMid = "Increase your water intake by 2 glasses a day."
	RecommendCardio       = "Add at least 30 minutes of cardio, such as brisk walking or cycling, on most days."
	RecommendKeepMoving   = "Great job staying active. Keep up your exercise routine."
	RecommendSugar        = "Cut back on added sugar to keep your blood glucose stable."
	RecommendVegetables   = "Eat more vegetables to cover your vitamin and mineral needs."
)

// EvaluateLifestyle scores questionnaire answers on a 10-100 scale.
// Numeric answers that are missing or unparseable skip their rule.
func EvaluateLifestyle(a domain.LifestyleAnswers) domain.LifestyleResult {
	breakdown := domain.Breakdown{}
	recommendations := make([]string, 0, 5)

	if meals, ok := a.MealsPerDay.Float(); ok {
		if meals < 3 {
			breakdown["Irregular Meals"] = -10
			recommendations = append(recommendations, RecommendMeals)
		} else {
			breakdown["Regular Meals"] = 10
		}
	}

	if water, ok := a.WaterIntake.Float(); ok {
		switch {
		case water < 4:
			breakdown["Dehydration"] = -15
			recommendations = append(recommendations, RecommendHydrationLow)
		case water >= 8:
			breakdown["Optimal Hydration"] = 15
		default:
			recommendations = append(recommendations, RecommendHydrationMid)
		}
	}

	if minutes, ok := a.ExerciseMinutes.Float(); ok {
		if minutes < 30 {
			breakdown["Low Exercise"] = -20
			recommendations = append(recommendations, RecommendCardio)
		} else {
			breakdown["Active Exercise"] = 20
			recommendations = append(recommendations, RecommendKeepMoving)
		}
	}

	if answerIs(a.SugarIntake, "high") {
		breakdown["High Sugar Intake"] = -15
		recommendations = append(recommendations, RecommendSugar)
	}
	if answerIs(a.VegIntake, "low") {
		breakdown["Low Vegetable Intake"] = -10
		recommendations = append(recommendations, RecommendVegetables)
	}

	score := Round(Clamp(lifestyleBaseline+breakdown.Sum(), 10, 100))

	return domain.LifestyleResult{
		Score:           score,
		Tier:            lifestyleTier(score),
		Recommendations: recommendations,
		Breakdown:       breakdown,
	}
}

func lifestyleTier(score int) domain.LifestyleTier {
	switch {
	case score >= 85:
		return domain.TierOptimal
	case score >= 60:
		return domain.TierBalanced
	default:
		return domain.TierHighRisk
	}
}

func answerIs(answer, want string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), want)
}
