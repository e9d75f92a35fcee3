package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/explain"
	"github.com/health-analytics-server/internal/middleware"
	"github.com/health-analytics-server/internal/service"
)

// maxHistoryLimit caps GET /history page sizes.
const maxHistoryLimit = 500

// ExplainedResponse wraps a result when ?explain=true is requested.
type ExplainedResponse struct {
	Result      interface{}         `json:"result"`
	Explanation service.Explanation `json:"explanation"`
}

// GeneticRiskRequest is the body of POST /scores/genetic-risk.
type GeneticRiskRequest struct {
	FamilyTree []domain.FamilyMember `json:"familyTree"`
}

// LabInterpretationRequest is the body of POST /labs/interpret.
type LabInterpretationRequest struct {
	LabResults []domain.LabResult `json:"labResults"`
}

func (s *Server) abort(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString(middleware.RequestIDKey)))
}

// bind decodes the JSON body or answers 400 INVALID_INPUT.
func (s *Server) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.abort(c, http.StatusBadRequest, domain.ErrInvalidInput, "Malformed request body", err.Error())
		return false
	}
	return true
}

func wantsExplanation(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("explain", "false"))
	return err == nil && v
}

// respond writes result, adding a guarded explanation when requested.
func (s *Server) respond(c *gin.Context, result interface{}, req explain.Request, fallback string) {
	if !wantsExplanation(c) {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusOK, ExplainedResponse{
		Result:      result,
		Explanation: s.service.Explain(c.Request.Context(), req, fallback),
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}
	for name, check := range s.checks {
		if err := check(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = err.Error()
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":            state,
		"timestamp":         time.Now().UTC(),
		"algorithm_version": service.AlgorithmVersion,
		"dependencies":      deps,
	})
}

func (s *Server) handleReferenceRanges(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.ReferenceRanges())
}

func (s *Server) handleCreditScore(c *gin.Context) {
	var profile domain.UserProfileParams
	if !s.bind(c, &profile) {
		return
	}
	result := s.service.EvaluateCreditScore(profile)
	req, fallback := service.CreditExplanationRequest(profile, result)
	s.respond(c, result, req, fallback)
}

func (s *Server) handleDiseaseRisk(c *gin.Context) {
	var profile domain.UserProfileParams
	if !s.bind(c, &profile) {
		return
	}
	result := s.service.EvaluateDiseaseRisks(profile)
	req, fallback := service.DiseaseExplanationRequest(profile, result)
	s.respond(c, result, req, fallback)
}

func (s *Server) handleMentalHealth(c *gin.Context) {
	var in domain.MentalHealthInput
	if !s.bind(c, &in) {
		return
	}
	result := s.service.EvaluateMentalHealth(in)
	req, fallback := service.MentalExplanationRequest(in, result)
	s.respond(c, result, req, fallback)
}

func (s *Server) handleLifestyle(c *gin.Context) {
	var answers domain.LifestyleAnswers
	if !s.bind(c, &answers) {
		return
	}
	result := s.service.EvaluateLifestyle(answers)
	req, fallback := service.LifestyleExplanationRequest(answers, result)
	s.respond(c, result, req, fallback)
}

func (s *Server) handleGeneticRisk(c *gin.Context) {
	var body GeneticRiskRequest
	if !s.bind(c, &body) {
		return
	}
	results := s.service.EvaluateGeneticRisk(body.FamilyTree)
	req, fallback := service.GeneticExplanationRequest(body.FamilyTree, results)
	s.respond(c, results, req, fallback)
}

func (s *Server) handleLabInterpretation(c *gin.Context) {
	var body LabInterpretationRequest
	if !s.bind(c, &body) {
		return
	}
	results := s.service.EvaluateLabValues(body.LabResults)
	req, fallback := service.LabExplanationRequest(results)
	s.respond(c, results, req, fallback)
}

func (s *Server) handleReport(c *gin.Context) {
	var in service.ReportInput
	if !s.bind(c, &in) {
		return
	}

	report, err := s.service.BuildReport(c.Request.Context(), c.Param("userID"), in)
	if err != nil {
		s.abort(c, http.StatusBadRequest, domain.ErrValidation, "Invalid report request", err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > maxHistoryLimit {
		s.abort(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid limit",
			"limit must be an integer between 1 and "+strconv.Itoa(maxHistoryLimit))
		return
	}

	records, err := s.service.History(c.Request.Context(), c.Param("userID"), limit)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", c.Param("userID")).Error("Failed to load history")
		s.abort(c, http.StatusInternalServerError, domain.ErrDatabaseError, "Failed to load history", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":  c.Param("userID"),
		"count":   len(records),
		"records": records,
	})
}
