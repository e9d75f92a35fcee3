package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-analytics-server/internal/analytics"
	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/explain"
	"github.com/health-analytics-server/internal/history"
)

// AlgorithmVersion is stamped onto every archived score snapshot.
const AlgorithmVersion = "1.0.0"

// AnalyticsService wraps the scoring engine for the HTTP, MCP and CLI
// surfaces. Evaluations are logged, explanations are guarded and report
// snapshots are archived when they change.
type AnalyticsService struct {
	logger  *logrus.Logger
	guard   *explain.Guard
	history history.Store
	now     func() time.Time

	archiveLocks [archiveStripes]sync.Mutex
}

// NewAnalyticsService creates a new analytics service. guard and store may be
// nil: explanations then always use the deterministic text and nothing is
// archived.
func NewAnalyticsService(logger *logrus.Logger, guard *explain.Guard, store history.Store) *AnalyticsService {
	return &AnalyticsService{
		logger:  logger,
		guard:   guard,
		history: store,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Explanation is the text attached to a score and whether it is the
// deterministic fallback.
type Explanation struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// EvaluateCreditScore computes the health credit score.
func (s *AnalyticsService) EvaluateCreditScore(p domain.UserProfileParams) domain.HealthCreditScoreResult {
	result := analytics.EvaluateCreditScore(p)
	s.logger.WithFields(logrus.Fields{
		"score": result.Score,
		"trend": result.Trend,
		"rules": len(result.WeightBreakdown),
	}).Info("Credit score evaluated")
	return result
}

// EvaluateDiseaseRisks computes cardiovascular and type 2 diabetes risk.
func (s *AnalyticsService) EvaluateDiseaseRisks(p domain.UserProfileParams) domain.DiseaseRiskResult {
	result := analytics.EvaluateDiseaseRisks(p)
	s.logger.WithFields(logrus.Fields{
		"cardiovascular": result.CardiovascularPercentage,
		"type2_diabetes": result.Type2DiabetesPercentage,
		"status":         result.Status,
	}).Info("Disease risk evaluated")
	return result
}

// EvaluateMentalHealth computes the mental wellness score.
func (s *AnalyticsService) EvaluateMentalHealth(in domain.MentalHealthInput) domain.MentalHealthResult {
	result := analytics.EvaluateMentalHealthInput(in)
	s.logger.WithFields(logrus.Fields{
		"score":     result.MentalScore,
		"risk_band": result.RiskBand,
		"mood_logs": len(in.Moods()),
	}).Info("Mental health evaluated")
	return result
}

// EvaluateLifestyle scores the lifestyle questionnaire.
func (s *AnalyticsService) EvaluateLifestyle(a domain.LifestyleAnswers) domain.LifestyleResult {
	result := analytics.EvaluateLifestyle(a)
	s.logger.WithFields(logrus.Fields{
		"score":           result.Score,
		"tier":            result.Tier,
		"recommendations": len(result.Recommendations),
	}).Info("Lifestyle evaluated")
	return result
}

// EvaluateGeneticRisk aggregates inherited risk from a family tree.
func (s *AnalyticsService) EvaluateGeneticRisk(tree []domain.FamilyMember) []domain.GeneticRiskResult {
	results := analytics.EvaluateGeneticRisk(tree)
	s.logger.WithFields(logrus.Fields{
		"relatives":  len(tree),
		"categories": len(results),
	}).Info("Genetic risk evaluated")
	return results
}

// EvaluateLabValues interprets lab results.
func (s *AnalyticsService) EvaluateLabValues(results []domain.LabResult) []domain.LabInterpretation {
	interpretations := analytics.EvaluateLabValues(results)
	s.logger.WithFields(logrus.Fields{
		"results":   len(results),
		"anomalous": countAnomalous(interpretations),
	}).Info("Lab values interpreted")
	return interpretations
}

// ReferenceRanges returns the lab reference table.
func (s *AnalyticsService) ReferenceRanges() []analytics.ReferenceRange {
	return analytics.ReferenceRanges()
}

// Explain runs a guarded explanation for req.
func (s *AnalyticsService) Explain(ctx context.Context, req explain.Request, fallback string) Explanation {
	text, usedFallback := s.guard.Explain(ctx, req, fallback)
	return Explanation{Text: text, Fallback: usedFallback}
}

func countAnomalous(interpretations []domain.LabInterpretation) int {
	n := 0
	for _, i := range interpretations {
		if i.IsAnomalous {
			n++
		}
	}
	return n
}
