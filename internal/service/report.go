package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/explain"
	"github.com/health-analytics-server/internal/history"
)

// ReportInput collects every evaluator input a user has supplied. Absent
// sections are skipped.
type ReportInput struct {
	Profile      *domain.UserProfileParams `json:"profile,omitempty"`
	MentalHealth *domain.MentalHealthInput `json:"mentalHealth,omitempty"`
	Lifestyle    *domain.LifestyleAnswers  `json:"lifestyle,omitempty"`
	FamilyTree   []domain.FamilyMember     `json:"familyTree,omitempty"`
	LabResults   []domain.LabResult        `json:"labResults,omitempty"`
	Explain      bool                      `json:"explain"`
}

// Report is the combined output of every evaluator whose inputs were present.
type Report struct {
	ID               string                          `json:"id"`
	UserID           string                          `json:"userId"`
	GeneratedAt      time.Time                       `json:"generatedAt"`
	AlgorithmVersion string                          `json:"algorithmVersion"`
	CreditScore      *domain.HealthCreditScoreResult `json:"creditScore,omitempty"`
	DiseaseRisk      *domain.DiseaseRiskResult       `json:"diseaseRisk,omitempty"`
	MentalHealth     *domain.MentalHealthResult      `json:"mentalHealth,omitempty"`
	Lifestyle        *domain.LifestyleResult         `json:"lifestyle,omitempty"`
	GeneticRisk      []domain.GeneticRiskResult      `json:"geneticRisk,omitempty"`
	LabResults       []domain.LabInterpretation      `json:"labResults,omitempty"`
	Explanations     map[string]Explanation          `json:"explanations,omitempty"`
	Archived         bool                            `json:"archived"`
}

type pendingExplanation struct {
	req      explain.Request
	fallback string
}

// BuildReport evaluates every section present in the input, explains the
// scores concurrently when requested and archives the snapshot if it changed.
// Archive failures are logged and leave Archived false.
func (s *AnalyticsService) BuildReport(ctx context.Context, userID string, in ReportInput) (*Report, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("userId", "user id is required", userID)
	}
	startTime := time.Now()

	report := &Report{
		ID:               uuid.NewString(),
		UserID:           userID,
		GeneratedAt:      s.now(),
		AlgorithmVersion: AlgorithmVersion,
	}
	var pending []pendingExplanation

	if in.Profile != nil {
		credit := s.EvaluateCreditScore(*in.Profile)
		disease := s.EvaluateDiseaseRisks(*in.Profile)
		report.CreditScore = &credit
		report.DiseaseRisk = &disease

		req, fallback := CreditExplanationRequest(*in.Profile, credit)
		pending = append(pending, pendingExplanation{req, fallback})
		req, fallback = DiseaseExplanationRequest(*in.Profile, disease)
		pending = append(pending, pendingExplanation{req, fallback})
	}
	if in.MentalHealth != nil {
		mental := s.EvaluateMentalHealth(*in.MentalHealth)
		report.MentalHealth = &mental

		req, fallback := MentalExplanationRequest(*in.MentalHealth, mental)
		pending = append(pending, pendingExplanation{req, fallback})
	}
	if in.Lifestyle != nil {
		lifestyle := s.EvaluateLifestyle(*in.Lifestyle)
		report.Lifestyle = &lifestyle

		req, fallback := LifestyleExplanationRequest(*in.Lifestyle, lifestyle)
		pending = append(pending, pendingExplanation{req, fallback})
	}
	if len(in.FamilyTree) > 0 {
		report.GeneticRisk = s.EvaluateGeneticRisk(in.FamilyTree)

		req, fallback := GeneticExplanationRequest(in.FamilyTree, report.GeneticRisk)
		pending = append(pending, pendingExplanation{req, fallback})
	}
	if len(in.LabResults) > 0 {
		report.LabResults = s.EvaluateLabValues(in.LabResults)

		req, fallback := LabExplanationRequest(report.LabResults)
		pending = append(pending, pendingExplanation{req, fallback})
	}

	if in.Explain && len(pending) > 0 {
		report.Explanations = s.explainAll(ctx, pending)
	}

	if s.history != nil {
		archived, err := s.ArchiveIfChanged(ctx, userID, Snapshot(report))
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to archive score snapshot")
		}
		report.Archived = archived
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":       report.ID,
		"user_id":         userID,
		"sections":        len(pending),
		"explained":       len(report.Explanations),
		"archived":        report.Archived,
		"processing_time": time.Since(startTime),
	}).Info("Health report built")

	return report, nil
}

// explainAll runs one guarded explanation per pending item concurrently.
// Guarded calls never fail; the group is only used to wait.
func (s *AnalyticsService) explainAll(ctx context.Context, pending []pendingExplanation) map[string]Explanation {
	var mu sync.Mutex
	explanations := make(map[string]Explanation, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range pending {
		p := p
		g.Go(func() error {
			e := s.Explain(gctx, p.req, p.fallback)
			mu.Lock()
			explanations[p.req.Topic] = e
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return explanations
}

// Snapshot extracts the archived score values from a report.
func Snapshot(r *Report) map[string]float64 {
	scores := map[string]float64{}
	if r.CreditScore != nil {
		scores[history.ScoreCredit] = float64(r.CreditScore.Score)
	}
	if r.DiseaseRisk != nil {
		scores[history.ScoreCardiovascular] = float64(r.DiseaseRisk.CardiovascularPercentage)
		scores[history.ScoreType2Diabetes] = float64(r.DiseaseRisk.Type2DiabetesPercentage)
	}
	if r.MentalHealth != nil {
		scores[history.ScoreMental] = float64(r.MentalHealth.MentalScore)
	}
	if r.Lifestyle != nil {
		scores[history.ScoreLifestyle] = float64(r.Lifestyle.Score)
	}
	for _, g := range r.GeneticRisk {
		scores[geneticScoreKey(g.Condition)] = float64(g.RiskPercentage)
	}
	return scores
}

func geneticScoreKey(condition string) string {
	return "genetic_" + strings.ReplaceAll(strings.ToLower(condition), " ", "_")
}

// archiveStripes is the number of per-user archive locks.
const archiveStripes = 64

// archiveLock returns the lock serializing archives for userID.
func (s *AnalyticsService) archiveLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.archiveLocks[h.Sum32()%archiveStripes]
}

// ArchiveIfChanged appends a snapshot to the user's history when a score in
// it is new or differs from the latest stored snapshot, or when the latest
// snapshot was computed by another algorithm version. Scores the snapshot
// omits are carried over from the latest record of the same version, so the
// newest record always holds the user's current scores. Empty snapshots are
// never archived. Archives for one user are serialized.
func (s *AnalyticsService) ArchiveIfChanged(ctx context.Context, userID string, scores map[string]float64) (bool, error) {
	if s.history == nil || len(scores) == 0 {
		return false, nil
	}

	lock := s.archiveLock(userID)
	lock.Lock()
	defer lock.Unlock()

	prev, err := s.history.Latest(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if prev != nil && prev.AlgorithmVersion == AlgorithmVersion && !history.Changed(prev, scores) {
		s.logger.WithField("user_id", userID).Debug("Score snapshot unchanged, skipping archive")
		return false, nil
	}

	base := prev
	if prev != nil && prev.AlgorithmVersion != AlgorithmVersion {
		base = nil
	}
	record := &history.Record{
		UserID:           userID,
		Timestamp:        s.now(),
		AlgorithmVersion: AlgorithmVersion,
		Scores:           history.Merge(base, scores),
	}
	if err := s.history.Append(ctx, record); err != nil {
		return false, fmt.Errorf("failed to append snapshot: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"record_id": record.ID,
		"scores":    len(record.Scores),
	}).Info("Score snapshot archived")
	return true, nil
}

// History lists a user's archived snapshots, newest first.
func (s *AnalyticsService) History(ctx context.Context, userID string, limit int) ([]*history.Record, error) {
	if s.history == nil {
		return []*history.Record{}, nil
	}
	records, err := s.history.List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return records, nil
}
