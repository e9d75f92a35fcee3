package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/health-analytics-server/internal/analytics"
	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/explain"
)

// Explanation requests carry the score and the profile fields it was computed
// from. Breakdowns never leave the engine.

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func profileFields(p domain.UserProfileParams) map[string]string {
	fields := map[string]string{}
	if v, ok := p.Age.Float(); ok {
		fields["age"] = formatFloat(v)
	}
	if p.Gender != domain.GenderUnspecified {
		fields["gender"] = string(p.Gender)
	}
	if v, ok := p.BMI.Float(); ok {
		fields["bmi"] = formatFloat(v)
	}
	if p.BloodPressure.Valid() {
		fields["bloodPressure"] = p.BloodPressure.String()
	}
	if v, ok := p.SleepHours.Float(); ok {
		fields["sleepHours"] = formatFloat(v)
	}
	if p.ActivityLevel != domain.ActivityUnknown {
		fields["activityLevel"] = string(p.ActivityLevel)
	}
	if p.SmokingStatus != domain.SmokingUnknown {
		fields["smokingStatus"] = string(p.SmokingStatus)
	}
	if p.AlcoholStatus != domain.AlcoholUnknown {
		fields["alcoholStatus"] = string(p.AlcoholStatus)
	}
	if len(p.FamilyHistory) > 0 {
		fields["familyHistory"] = strings.Join(p.FamilyHistory, ", ")
	}
	return fields
}

// CreditExplanationRequest builds the explanation request for a credit score.
func CreditExplanationRequest(p domain.UserProfileParams, r domain.HealthCreditScoreResult) (explain.Request, string) {
	fields := profileFields(p)
	fields["scale"] = fmt.Sprintf("%d-%d", analytics.CreditMin, analytics.CreditMax)
	fields["baseline"] = strconv.Itoa(analytics.CreditBaseline)

	return explain.Request{
		Topic:  explain.TopicCreditScore,
		Score:  float64(r.Score),
		Label:  string(r.Trend),
		Fields: fields,
	}, r.Explanation
}

// DiseaseExplanationRequest builds the explanation request for disease risk.
// The score is the cardiovascular percentage.
func DiseaseExplanationRequest(p domain.UserProfileParams, r domain.DiseaseRiskResult) (explain.Request, string) {
	fields := profileFields(p)
	fields["cardiovascularPercentage"] = strconv.Itoa(r.CardiovascularPercentage)
	fields["type2DiabetesPercentage"] = strconv.Itoa(r.Type2DiabetesPercentage)

	fallback := fmt.Sprintf("Your estimated cardiovascular risk is %d%% and your type 2 diabetes risk is %d%%.",
		r.CardiovascularPercentage, r.Type2DiabetesPercentage)
	if r.Status == domain.StatusWarning {
		fallback += " At least one estimate is elevated; consider discussing it with a clinician."
	}

	return explain.Request{
		Topic:  explain.TopicDiseaseRisk,
		Score:  float64(r.CardiovascularPercentage),
		Label:  string(r.Status),
		Fields: fields,
	}, fallback
}

// MentalExplanationRequest builds the explanation request for a mental score.
func MentalExplanationRequest(in domain.MentalHealthInput, r domain.MentalHealthResult) (explain.Request, string) {
	fields := map[string]string{"moodLogCount": strconv.Itoa(len(in.Moods()))}
	if v, ok := in.SleepHoursAvg.Float(); ok {
		fields["sleepHoursAvg"] = formatFloat(v)
	}

	return explain.Request{
		Topic:  explain.TopicMentalHealth,
		Score:  float64(r.MentalScore),
		Label:  string(r.RiskBand),
		Fields: fields,
	}, fmt.Sprintf("Your mental wellness score is %d out of 100, which is in the %s risk band.", r.MentalScore, r.RiskBand)
}

// LifestyleExplanationRequest builds the explanation request for a lifestyle
// score.
func LifestyleExplanationRequest(a domain.LifestyleAnswers, r domain.LifestyleResult) (explain.Request, string) {
	fields := map[string]string{}
	if v, ok := a.MealsPerDay.Float(); ok {
		fields["mealsPerDay"] = formatFloat(v)
	}
	if v, ok := a.WaterIntake.Float(); ok {
		fields["waterIntake"] = formatFloat(v)
	}
	if v, ok := a.ExerciseMinutes.Float(); ok {
		fields["exerciseMinutes"] = formatFloat(v)
	}
	if a.SugarIntake != "" {
		fields["sugarIntake"] = a.SugarIntake
	}
	if a.VegIntake != "" {
		fields["vegIntake"] = a.VegIntake
	}

	fallback := fmt.Sprintf("Your lifestyle score is %d out of 100 (%s).", r.Score, r.Tier)
	if len(r.Recommendations) > 0 {
		fallback += " " + r.Recommendations[0]
	}

	return explain.Request{
		Topic:  explain.TopicLifestyle,
		Score:  float64(r.Score),
		Label:  string(r.Tier),
		Fields: fields,
	}, fallback
}

// GeneticExplanationRequest builds the explanation request for inherited
// risk. The score is the highest category percentage.
func GeneticExplanationRequest(tree []domain.FamilyMember, results []domain.GeneticRiskResult) (explain.Request, string) {
	fields := map[string]string{"relatives": strconv.Itoa(len(tree))}
	var top *domain.GeneticRiskResult
	for i := range results {
		r := results[i]
		fields[r.Condition] = strconv.Itoa(r.RiskPercentage)
		if top == nil || r.RiskPercentage > top.RiskPercentage {
			top = &results[i]
		}
	}

	req := explain.Request{Topic: explain.TopicGeneticRisk, Fields: fields}
	if top == nil {
		return req, "No inherited risk was found in the family history provided."
	}

	req.Score = float64(top.RiskPercentage)
	req.Label = string(top.Tier)
	return req, fmt.Sprintf("Your highest inherited risk is %s at %d%% (%s).", top.Condition, top.RiskPercentage, top.Tier)
}

// LabExplanationRequest builds the explanation request for lab results. The
// score is the number of anomalous results.
func LabExplanationRequest(interpretations []domain.LabInterpretation) (explain.Request, string) {
	anomalous := countAnomalous(interpretations)
	fields := map[string]string{"total": strconv.Itoa(len(interpretations))}
	for _, i := range interpretations {
		fields[i.TestName] = fmt.Sprintf("%s %s (%s, range %s)", formatFloat(i.Value), i.Unit, i.Interpretation, i.ReferenceRange)
	}

	return explain.Request{
		Topic:  explain.TopicLabs,
		Score:  float64(anomalous),
		Fields: fields,
	}, fmt.Sprintf("%d of %d lab results are outside their reference range.", anomalous, len(interpretations))
}
