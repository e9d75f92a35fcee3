package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/health-analytics-server/internal/domain"
)

func TestEvaluateDiseaseRisks_WarningProfile(t *testing.T) {
	p := decodeProfile(t, `{"age":45,"gender":"Male","bmi":31,"bloodPressure":"135/85",
		"familyHistory":["Heart Disease","Diabetes"],"smokingStatus":"yes"}`)

	result := EvaluateDiseaseRisks(p)

	assert.Greater(t, result.CardiovascularPercentage, 15)
	assert.Greater(t, result.Type2DiabetesPercentage, 15)
	assert.Equal(t, domain.StatusWarning, result.Status)
	assert.Equal(t, 10.0, result.CVDBreakdown["Smoking"])
	assert.Equal(t, 10.0, result.T2DBreakdown["Family History"])

	assert.Equal(t, domain.Breakdown{
		"Base Risk":            2.0,
		"Male Gender":          1.5,
		"Elevated Systolic BP": 3.0,
		"Smoking":              10.0,
		"Obesity":              4.0,
		"Family History":       8.0,
	}, result.CVDBreakdown)
	assert.Equal(t, 29, result.CardiovascularPercentage)
	assert.Equal(t, 28, result.Type2DiabetesPercentage)
}

func TestEvaluateDiseaseRisks_ClearProfile(t *testing.T) {
	result := EvaluateDiseaseRisks(domain.UserProfileParams{
		Age: domain.Num(28), BMI: domain.Num(21), BloodPressure: domain.BP(112, 72),
	})

	assert.Equal(t, domain.StatusClear, result.Status)
	assert.Equal(t, 2, result.CardiovascularPercentage)
	assert.Equal(t, 1, result.Type2DiabetesPercentage)
	assert.Equal(t, domain.Breakdown{"Base Risk": 2.0}, result.CVDBreakdown)
	assert.Equal(t, domain.Breakdown{"Base Risk": 1.0}, result.T2DBreakdown)
}

func TestEvaluateDiseaseRisks_SystolicThresholdsCompound(t *testing.T) {
	tests := []struct {
		systolic float64
		expected float64
	}{
		{130, 0},
		{131, 3},
		{140, 3},
		{141, 8},
	}

	for _, tt := range tests {
		result := EvaluateDiseaseRisks(domain.UserProfileParams{BloodPressure: domain.BP(tt.systolic, 70)})
		bp := result.CVDBreakdown["Elevated Systolic BP"] + result.CVDBreakdown["Stage 2 Systolic BP"]
		assert.Equal(t, tt.expected, bp, "systolic=%v", tt.systolic)
	}
}

func TestEvaluateDiseaseRisks_AgeContribution(t *testing.T) {
	result := EvaluateDiseaseRisks(domain.UserProfileParams{Age: domain.Num(65)})
	assert.Equal(t, 10.0, result.CVDBreakdown["Age"])
	assert.Equal(t, 4.0, result.T2DBreakdown["Age"])

	// clamped to 120 before use
	result = EvaluateDiseaseRisks(domain.UserProfileParams{Age: domain.Num(400)})
	assert.Equal(t, 37.5, result.CVDBreakdown["Age"])
}

func TestEvaluateDiseaseRisks_InvalidInputsUseDefaults(t *testing.T) {
	p := decodeProfile(t, `{"age":"unknown","bmi":"n/a"}`)
	withDefaults := EvaluateDiseaseRisks(domain.UserProfileParams{Age: domain.Num(30), BMI: domain.Num(24)})

	assert.Equal(t, withDefaults, EvaluateDiseaseRisks(p))
	assert.Equal(t, withDefaults, EvaluateDiseaseRisks(domain.UserProfileParams{}))
}

func TestEvaluateDiseaseRisks_BMIClamp(t *testing.T) {
	low := EvaluateDiseaseRisks(domain.UserProfileParams{BMI: domain.Num(2)})
	assert.NotContains(t, low.T2DBreakdown, "Overweight BMI")

	high := EvaluateDiseaseRisks(domain.UserProfileParams{BMI: domain.Num(200)})
	assert.Equal(t, 5.0, high.T2DBreakdown["Overweight BMI"])
	assert.Equal(t, 8.0, high.T2DBreakdown["Obese BMI"])
	assert.Equal(t, 4.0, high.CVDBreakdown["Obesity"])
}

func TestEvaluateDiseaseRisks_StatusUsesUnroundedRisk(t *testing.T) {
	// 2 + 10 (smoking) + 3 (systolic) = 15.0 exactly: not above the threshold
	result := EvaluateDiseaseRisks(domain.UserProfileParams{
		SmokingStatus: domain.SmokingCurrent, BloodPressure: domain.BP(135, 80),
	})
	assert.Equal(t, 15, result.CardiovascularPercentage)
	assert.Equal(t, domain.StatusClear, result.Status)

	// 15.5 rounds to 16 and is above the threshold
	result = EvaluateDiseaseRisks(domain.UserProfileParams{
		Age: domain.Num(46), SmokingStatus: domain.SmokingCurrent, BloodPressure: domain.BP(135, 80),
	})
	assert.Equal(t, 16, result.CardiovascularPercentage)
	assert.Equal(t, domain.StatusWarning, result.Status)
}

func TestEvaluateDiseaseRisks_BreakdownSumsToRisk(t *testing.T) {
	for _, p := range profileGrid() {
		result := EvaluateDiseaseRisks(p)
		assert.Equal(t, Round(Clamp(result.CVDBreakdown.Sum(), 0, 99)), result.CardiovascularPercentage)
		assert.Equal(t, Round(Clamp(result.T2DBreakdown.Sum(), 0, 99)), result.Type2DiabetesPercentage)
	}
}
