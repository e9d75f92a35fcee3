package analytics

import (
	"math"

	"github.com/health-analytics-server/internal/domain"
)

const neutralMentalScore = 50.0

// EvaluateMentalHealth scores mood logs on a 1-5 scale against average sleep.
// Non-finite mood entries are ignored and a non-finite sleep average skips the
// sleep adjustment.
func EvaluateMentalHealth(moodLogs []float64, sleepHoursAvg float64) domain.MentalHealthResult {
	breakdown := domain.Breakdown{}

	var sum float64
	var n int
	for _, mood := range moodLogs {
		if !finite(mood) {
			continue
		}
		sum += mood
		n++
	}

	if n > 0 {
		breakdown["Mood Log Average"] = sum / float64(n) * 20
	} else {
		breakdown["Neutral Baseline"] = neutralMentalScore
	}

	if finite(sleepHoursAvg) {
		switch {
		case sleepHoursAvg < 5:
			breakdown["Severe Sleep Deprivation"] = -15
		case sleepHoursAvg > 8:
			breakdown["Restorative Sleep"] = 5
		}
	}

	score := Round(Clamp(breakdown.Sum(), 0, 100))

	return domain.MentalHealthResult{
		MentalScore: score,
		RiskBand:    mentalRiskBand(score),
		Breakdown:   breakdown,
	}
}

// EvaluateMentalHealthInput adapts the JSON request shape. Missing or
// malformed mood entries are dropped.
func EvaluateMentalHealthInput(in domain.MentalHealthInput) domain.MentalHealthResult {
	return EvaluateMentalHealth(in.Moods(), in.SleepHoursAvg.Or(math.NaN()))
}

func mentalRiskBand(score int) domain.RiskBand {
	switch {
	case score < 40:
		return domain.RiskHigh
	case score < 60:
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}
