package domain

// Breakdown maps a human-readable rule name to the signed weight it contributed.
// For every evaluator, the documented baseline plus the sum of the breakdown
// equals the score before clamping.
type Breakdown map[string]float64

// Sum adds up all contributions.
func (b Breakdown) Sum() float64 {
	var total float64
	for _, v := range b {
		total += v
	}
	return total
}

// UserProfileParams is the profile-shaped input shared by the credit score and
// disease risk evaluators. Every field is optional.
type UserProfileParams struct {
	Age           Number        `json:"age"`
	Gender        Gender        `json:"gender,omitempty"`
	BMI           Number        `json:"bmi"`
	BloodPressure BloodPressure `json:"bloodPressure"`
	BloodSugar    Number        `json:"bloodSugar"`
	ActivityLevel ActivityLevel `json:"activityLevel,omitempty"`
	SleepHours    Number        `json:"sleepHours"`
	SmokingStatus SmokingStatus `json:"smokingStatus,omitempty"`
	AlcoholStatus AlcoholStatus `json:"alcoholStatus,omitempty"`
	FamilyHistory []string      `json:"familyHistory,omitempty"`
}

// HealthCreditScoreResult is the output of the credit score evaluator.
type HealthCreditScoreResult struct {
	Score           int       `json:"score"`
	Trend           Trend     `json:"trend"`
	Explanation     string    `json:"explanation"`
	WeightBreakdown Breakdown `json:"weightBreakdown"`
}

// DiseaseRiskResult is the output of the disease risk evaluator.
type DiseaseRiskResult struct {
	CardiovascularPercentage int        `json:"cardiovascularPercentage"`
	Type2DiabetesPercentage  int        `json:"type2DiabetesPercentage"`
	CVDBreakdown             Breakdown  `json:"cvdBreakdown"`
	T2DBreakdown             Breakdown  `json:"t2dBreakdown"`
	Status                   RiskStatus `json:"status"`
}

// MentalHealthInput is the request shape for the mental health evaluator.
// Mood entries are tolerant numbers; malformed entries are dropped.
type MentalHealthInput struct {
	MoodLogs      []Number `json:"moodLogs"`
	SleepHoursAvg Number   `json:"sleepHoursAvg"`
}

// Moods returns the usable mood entries in input order.
func (in MentalHealthInput) Moods() []float64 {
	moods := make([]float64, 0, len(in.MoodLogs))
	for _, m := range in.MoodLogs {
		if v, ok := m.Float(); ok {
			moods = append(moods, v)
		}
	}
	return moods
}

// Moods builds a mood log from plain values.
func Moods(values ...float64) []Number {
	out := make([]Number, len(values))
	for i, v := range values {
		out[i] = Num(v)
	}
	return out
}

// MentalHealthResult is the output of the mental health evaluator.
type MentalHealthResult struct {
	MentalScore int       `json:"mentalScore"`
	RiskBand    RiskBand  `json:"riskBand"`
	Breakdown   Breakdown `json:"breakdown"`
}

// LifestyleAnswers are the answers to the lifestyle questionnaire.
type LifestyleAnswers struct {
	MealsPerDay     Number `json:"mealsPerDay"`
	WaterIntake     Number `json:"waterIntake"`
	ExerciseMinutes Number `json:"exerciseMinutes"`
	SugarIntake     string `json:"sugarIntake,omitempty"`
	VegIntake       string `json:"vegIntake,omitempty"`
}

// LifestyleResult is the output of the lifestyle evaluator.
type LifestyleResult struct {
	Score           int           `json:"score"`
	Tier            LifestyleTier `json:"tier"`
	Recommendations []string      `json:"recommendations"`
	Breakdown       Breakdown     `json:"breakdown"`
}

// FamilyMember is one relative in a family tree.
type FamilyMember struct {
	Relation   string   `json:"relation"`
	Conditions []string `json:"conditions"`
}

// GeneticRiskResult is one disease category's inherited risk.
type GeneticRiskResult struct {
	Condition      string   `json:"condition"`
	RiskPercentage int      `json:"riskPercentage"`
	Tier           RiskBand `json:"tier"`
}

// LabResult is a single lab measurement.
type LabResult struct {
	TestName string `json:"testName"`
	Value    Number `json:"value"`
	Unit     string `json:"unit"`
}

// LabInterpretation is the interpreted form of a LabResult.
type LabInterpretation struct {
	TestName       string  `json:"testName"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit"`
	ReferenceRange string  `json:"referenceRange"`
	Interpretation string  `json:"interpretation"`
	IsAnomalous    bool    `json:"isAnomalous"`
}
