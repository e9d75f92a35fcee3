package analytics

import (
	"math"
	"strings"

	"github.com/health-analytics-server/internal/domain"
)

const (
	defaultAge = 30
	defaultBMI = 24

	// WarningThreshold is the risk percentage above which a profile is flagged.
	WarningThreshold = 15.0
)

// EvaluateDiseaseRisks estimates cardiovascular and type 2 diabetes risk
// percentages. Missing age and BMI fall back to population defaults.
func EvaluateDiseaseRisks(p domain.UserProfileParams) domain.DiseaseRiskResult {
	age := Clamp(math.Trunc(p.Age.Or(defaultAge)), 1, 120)
	bmi := Clamp(p.BMI.Or(defaultBMI), 10, 60)
	smoker := p.SmokingStatus == domain.SmokingCurrent

	cvd := domain.Breakdown{"Base Risk": 2.0}
	if age > 45 {
		cvd["Age"] = (age - 45) * 0.5
	}
	if p.Gender == domain.GenderMale && age > 40 {
		cvd["Male Gender"] = 1.5
	}
	if bp := p.BloodPressure; bp.Valid() {
		// both thresholds apply above 140
		if bp.Systolic > 130 {
			cvd["Elevated Systolic BP"] = 3.0
		}
		if bp.Systolic > 140 {
			cvd["Stage 2 Systolic BP"] = 5.0
		}
	}
	if smoker {
		cvd["Smoking"] = 10.0
	}
	if bmi > 30 {
		cvd["Obesity"] = 4.0
	}
	if familyHistoryMentions(p.FamilyHistory, "heart") {
		cvd["Family History"] = 8.0
	}

	t2d := domain.Breakdown{"Base Risk": 1.0}
	if bmi >= 25 {
		t2d["Overweight BMI"] = 5.0
	}
	if bmi >= 30 {
		t2d["Obese BMI"] = 8.0
	}
	if age >= 40 {
		t2d["Age"] = 4.0
	}
	if p.ActivityLevel == domain.ActivitySedentary {
		t2d["Sedentary Lifestyle"] = 3.0
	}
	if familyHistoryMentions(p.FamilyHistory, "diabetes") {
		t2d["Family History"] = 10.0
	}

	cvdRisk := Clamp(cvd.Sum(), 0, 99)
	t2dRisk := Clamp(t2d.Sum(), 0, 99)

	status := domain.StatusClear
	if cvdRisk > WarningThreshold || t2dRisk > WarningThreshold {
		status = domain.StatusWarning
	}

	return domain.DiseaseRiskResult{
		CardiovascularPercentage: Round(cvdRisk),
		Type2DiabetesPercentage:  Round(t2dRisk),
		CVDBreakdown:             cvd,
		T2DBreakdown:             t2d,
		Status:                   status,
	}
}

func familyHistoryMentions(history []string, keyword string) bool {
	for _, entry := range history {
		if strings.Contains(strings.ToLower(entry), keyword) {
			return true
		}
	}
	return false
}
