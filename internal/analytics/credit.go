package analytics

import "github.com/health-analytics-server/internal/domain"

// Credit score bounds and baseline
const (
	CreditBaseline = 800
	CreditMin      = 300
	CreditMax      = 1000
)

// Canned explanations keyed by score band
const (
	CreditExplanationExcellent = "Excellent health credit. Your current habits keep you well above the baseline."
	CreditExplanationGood      = "Good health credit. Most of your indicators sit in a healthy range."
	CreditExplanationFair      = "Your health credit is close to the baseline. A few targeted changes would lift it."
	CreditExplanationWarning   = "Your health credit is below 600. Several risk factors are pulling it down and are worth reviewing with a clinician."
)

// EvaluateCreditScore scores a profile on the 300-1000 health credit scale.
// Fields that are missing or unparseable skip their rule.
func EvaluateCreditScore(p domain.UserProfileParams) domain.HealthCreditScoreResult {
	breakdown := domain.Breakdown{}

	if bmi, ok := p.BMI.Float(); ok {
		switch {
		case bmi < 18.5:
			breakdown["Underweight BMI"] = -20
		case bmi < 25:
			breakdown["Optimal BMI"] = 40
		case bmi < 30:
			breakdown["Overweight BMI"] = -30
		default:
			breakdown["Obese BMI"] = -60
		}
	}

	switch p.ActivityLevel {
	case domain.ActivitySedentary:
		breakdown["Sedentary Lifestyle"] = -40
	case domain.ActivityActive:
		breakdown["Active Lifestyle"] = 50
	}

	if sleep, ok := p.SleepHours.Float(); ok {
		switch {
		case sleep < 6:
			breakdown["Sleep Deprivation"] = -30
		case sleep >= 7 && sleep <= 9:
			breakdown["Optimal Sleep"] = 30
		}
	}

	if bp := p.BloodPressure; bp.Valid() {
		switch {
		case bp.Systolic >= 140 || bp.Diastolic >= 90:
			breakdown["Hypertension Stage 2"] = -80
		case bp.Systolic >= 130 || bp.Diastolic >= 80:
			breakdown["Hypertension Stage 1"] = -40
		case bp.Systolic < 120 && bp.Diastolic < 80 && bp.Systolic > 90:
			breakdown["Ideal Blood Pressure"] = 50
		}
	}

	if p.SmokingStatus == domain.SmokingCurrent {
		breakdown["Active Smoking"] = -100
	}
	if p.AlcoholStatus.IsHighIntake() {
		breakdown["Heavy Alcohol Use"] = -50
	}

	var additions, deductions float64
	for _, w := range breakdown {
		if w > 0 {
			additions += w
		} else {
			deductions -= w
		}
	}

	score := Round(Clamp(CreditBaseline+additions-deductions, CreditMin, CreditMax))

	trend := domain.TrendDown
	if additions > deductions {
		trend = domain.TrendUp
	}

	return domain.HealthCreditScoreResult{
		Score:           score,
		Trend:           trend,
		Explanation:     CreditExplanation(score),
		WeightBreakdown: breakdown,
	}
}

// CreditExplanation returns the canned sentence for a score band.
func CreditExplanation(score int) string {
	switch {
	case score >= 850:
		return CreditExplanationExcellent
	case score >= 700:
		return CreditExplanationGood
	case score < 600:
		return CreditExplanationWarning
	default:
		return CreditExplanationFair
	}
}
