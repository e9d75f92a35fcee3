package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/explain"
	"github.com/health-analytics-server/internal/history"
	"github.com/health-analytics-server/internal/service"
)

// Tool names
const (
	ToolCreditScore   = "evaluate_credit_score"
	ToolDiseaseRisk   = "evaluate_disease_risk"
	ToolMentalHealth  = "evaluate_mental_health"
	ToolLifestyle     = "evaluate_lifestyle"
	ToolGeneticRisk   = "evaluate_genetic_risk"
	ToolLabValues     = "interpret_lab_values"
	ToolHealthReport  = "build_health_report"
	ToolScoreHistory  = "get_score_history"
	ToolExportHistory = "export_score_history"
	ToolImportHistory = "import_score_history"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// ProfileArgs are the arguments of the credit score and disease risk tools.
type ProfileArgs struct {
	domain.UserProfileParams
	Explain bool `json:"explain"`
}

// MentalHealthArgs are the arguments of evaluate_mental_health.
type MentalHealthArgs struct {
	domain.MentalHealthInput
	Explain bool `json:"explain"`
}

// LifestyleArgs are the arguments of evaluate_lifestyle.
type LifestyleArgs struct {
	domain.LifestyleAnswers
	Explain bool `json:"explain"`
}

// GeneticRiskArgs are the arguments of evaluate_genetic_risk.
type GeneticRiskArgs struct {
	FamilyTree []domain.FamilyMember `json:"familyTree"`
	Explain    bool                  `json:"explain"`
}

// LabValuesArgs are the arguments of interpret_lab_values.
type LabValuesArgs struct {
	LabResults []domain.LabResult `json:"labResults"`
	Explain    bool               `json:"explain"`
}

// ReportArgs are the arguments of build_health_report.
type ReportArgs struct {
	UserID string `json:"userId"`
	service.ReportInput
}

// HistoryArgs are the arguments of get_score_history.
type HistoryArgs struct {
	UserID string `json:"userId"`
	Limit  int    `json:"limit"`
}

// ImportArgs are the arguments of import_score_history. With UserID set the
// file holds a legacy string-encoded history for that user.
type ImportArgs struct {
	FilePath string `json:"file_path"`
	UserID   string `json:"user_id,omitempty"`
}

// ExplainedResult wraps a result when an explanation was requested.
type ExplainedResult struct {
	Result      interface{}         `json:"result"`
	Explanation service.Explanation `json:"explanation"`
}

// ExportResult is returned by export_score_history.
type ExportResult struct {
	Success  bool   `json:"success"`
	FilePath string `json:"file_path"`
	Count    int64  `json:"count"`
	Message  string `json:"message"`
}

// ImportResult is returned by import_score_history.
type ImportResult struct {
	Success  bool   `json:"success"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Message  string `json:"message"`
}

// registerTools adds every tool to the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolCreditScore,
		Description: "Compute the 300-1000 health credit score from a user profile, with a rule-by-rule weight breakdown.",
		InputSchema: profileSchema(),
	}, s.evaluateCreditScore)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolDiseaseRisk,
		Description: "Estimate cardiovascular and type 2 diabetes risk percentages from a user profile.",
		InputSchema: profileSchema(),
	}, s.evaluateDiseaseRisk)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolMentalHealth,
		Description: "Score mental wellness from recent mood logs and average sleep.",
		InputSchema: mentalHealthSchema(),
	}, s.evaluateMentalHealth)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolLifestyle,
		Description: "Score lifestyle questionnaire answers and return ordered recommendations.",
		InputSchema: lifestyleSchema(),
	}, s.evaluateLifestyle)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGeneticRisk,
		Description: "Estimate inherited risk per disease category from a family tree.",
		InputSchema: familyTreeSchema(),
	}, s.evaluateGeneticRisk)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolLabValues,
		Description: "Interpret lab results against standard reference ranges and flag anomalies.",
		InputSchema: labResultsSchema(),
	}, s.interpretLabValues)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolHealthReport,
		Description: "Run every evaluator whose inputs are present and archive the score snapshot when it changed.",
		InputSchema: reportSchema(),
	}, s.buildHealthReport)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolScoreHistory,
		Description: "List a user's archived score snapshots, newest first.",
		InputSchema: historySchema(),
	}, s.getScoreHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolExportHistory,
		Description: "Export all archived score snapshots to a JSON file for backup.",
		InputSchema: emptySchema(),
	}, s.exportScoreHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolImportHistory,
		Description: "Import score snapshots from a JSON backup file, or a legacy string-encoded history when user_id is given. Skips duplicates.",
		InputSchema: importSchema(),
	}, s.importScoreHistory)

	s.logger.WithField("tool_count", len(ToolNames())).Info("Successfully registered all tools")
}

// ToolNames lists the registered tools in registration order.
func ToolNames() []string {
	return []string{
		ToolCreditScore, ToolDiseaseRisk, ToolMentalHealth, ToolLifestyle, ToolGeneticRisk,
		ToolLabValues, ToolHealthReport, ToolScoreHistory, ToolExportHistory, ToolImportHistory,
	}
}

func (s *Server) evaluateCreditScore(ctx context.Context, _ *mcp.CallToolRequest, args ProfileArgs) (*mcp.CallToolResult, any, error) {
	result := s.service.EvaluateCreditScore(args.UserProfileParams)
	if !args.Explain {
		return s.jsonResult(ToolCreditScore, result)
	}
	req, fallback := service.CreditExplanationRequest(args.UserProfileParams, result)
	return s.explained(ctx, ToolCreditScore, result, req, fallback)
}

func (s *Server) evaluateDiseaseRisk(ctx context.Context, _ *mcp.CallToolRequest, args ProfileArgs) (*mcp.CallToolResult, any, error) {
	result := s.service.EvaluateDiseaseRisks(args.UserProfileParams)
	if !args.Explain {
		return s.jsonResult(ToolDiseaseRisk, result)
	}
	req, fallback := service.DiseaseExplanationRequest(args.UserProfileParams, result)
	return s.explained(ctx, ToolDiseaseRisk, result, req, fallback)
}

func (s *Server) evaluateMentalHealth(ctx context.Context, _ *mcp.CallToolRequest, args MentalHealthArgs) (*mcp.CallToolResult, any, error) {
	result := s.service.EvaluateMentalHealth(args.MentalHealthInput)
	if !args.Explain {
		return s.jsonResult(ToolMentalHealth, result)
	}
	req, fallback := service.MentalExplanationRequest(args.MentalHealthInput, result)
	return s.explained(ctx, ToolMentalHealth, result, req, fallback)
}

func (s *Server) evaluateLifestyle(ctx context.Context, _ *mcp.CallToolRequest, args LifestyleArgs) (*mcp.CallToolResult, any, error) {
	result := s.service.EvaluateLifestyle(args.LifestyleAnswers)
	if !args.Explain {
		return s.jsonResult(ToolLifestyle, result)
	}
	req, fallback := service.LifestyleExplanationRequest(args.LifestyleAnswers, result)
	return s.explained(ctx, ToolLifestyle, result, req, fallback)
}

func (s *Server) evaluateGeneticRisk(ctx context.Context, _ *mcp.CallToolRequest, args GeneticRiskArgs) (*mcp.CallToolResult, any, error) {
	result := s.service.EvaluateGeneticRisk(args.FamilyTree)
	if !args.Explain {
		return s.jsonResult(ToolGeneticRisk, result)
	}
	req, fallback := service.GeneticExplanationRequest(args.FamilyTree, result)
	return s.explained(ctx, ToolGeneticRisk, result, req, fallback)
}

func (s *Server) interpretLabValues(ctx context.Context, _ *mcp.CallToolRequest, args LabValuesArgs) (*mcp.CallToolResult, any, error) {
	result := s.service.EvaluateLabValues(args.LabResults)
	if !args.Explain {
		return s.jsonResult(ToolLabValues, result)
	}
	req, fallback := service.LabExplanationRequest(result)
	return s.explained(ctx, ToolLabValues, result, req, fallback)
}

func (s *Server) buildHealthReport(ctx context.Context, _ *mcp.CallToolRequest, args ReportArgs) (*mcp.CallToolResult, any, error) {
	report, err := s.service.BuildReport(ctx, args.UserID, args.ReportInput)
	if err != nil {
		return s.toolError(ToolHealthReport, "Failed to build report", err)
	}
	return s.jsonResult(ToolHealthReport, report)
}

func (s *Server) getScoreHistory(ctx context.Context, _ *mcp.CallToolRequest, args HistoryArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.UserID) == "" {
		return s.toolError(ToolScoreHistory, "Invalid parameters", fmt.Errorf("userId is required"))
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.service.History(ctx, args.UserID, limit)
	if err != nil {
		return s.toolError(ToolScoreHistory, "Failed to list history", err)
	}
	return s.jsonResult(ToolScoreHistory, records)
}

func (s *Server) exportScoreHistory(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	exportDir := s.config.ExportDir()
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return s.toolError(ToolExportHistory, "Failed to create export directory", err)
	}

	filename := fmt.Sprintf("score_history_export_%s.json", time.Now().Format("20060102_150405"))
	filePath := filepath.Join(exportDir, filename)

	file, err := os.Create(filePath)
	if err != nil {
		return s.toolError(ToolExportHistory, "Failed to create export file", err)
	}
	defer file.Close()

	if err := s.store.ExportJSON(ctx, file); err != nil {
		return s.toolError(ToolExportHistory, "Failed to export history", err)
	}

	count, _ := s.store.Count(ctx, "")
	return s.jsonResult(ToolExportHistory, ExportResult{
		Success:  true,
		FilePath: filePath,
		Count:    count,
		Message:  fmt.Sprintf("Exported %d score snapshots to %s", count, filePath),
	})
}

func (s *Server) importScoreHistory(ctx context.Context, _ *mcp.CallToolRequest, args ImportArgs) (*mcp.CallToolResult, any, error) {
	if args.FilePath == "" {
		return s.toolError(ToolImportHistory, "Invalid parameters", fmt.Errorf("file_path is required"))
	}

	var imported, skipped int
	if userID := strings.TrimSpace(args.UserID); userID != "" {
		data, err := os.ReadFile(args.FilePath)
		if err != nil {
			return s.toolError(ToolImportHistory, "Failed to open file", err)
		}
		if imported, skipped, err = history.ImportLegacy(ctx, s.store, userID, data); err != nil {
			return s.toolError(ToolImportHistory, "Failed to import legacy history", err)
		}
	} else {
		file, err := os.Open(args.FilePath)
		if err != nil {
			return s.toolError(ToolImportHistory, "Failed to open file", err)
		}
		defer file.Close()

		if imported, skipped, err = s.store.ImportJSON(ctx, file); err != nil {
			return s.toolError(ToolImportHistory, "Failed to import history", err)
		}
	}

	return s.jsonResult(ToolImportHistory, ImportResult{
		Success:  true,
		Imported: imported,
		Skipped:  skipped,
		Message:  fmt.Sprintf("Imported %d snapshots, skipped %d duplicates", imported, skipped),
	})
}

func (s *Server) explained(ctx context.Context, tool string, result interface{}, req explain.Request, fallback string) (*mcp.CallToolResult, any, error) {
	return s.jsonResult(tool, ExplainedResult{
		Result:      result,
		Explanation: s.service.Explain(ctx, req, fallback),
	})
}

// jsonResult renders v as indented JSON text content.
func (s *Server) jsonResult(tool string, v interface{}) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s.toolError(tool, "Failed to encode result", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// toolError reports a failure inside the tool result so the client sees it
// as a tool error rather than a protocol error.
func (s *Server) toolError(tool, message string, err error) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool_name": tool,
		"error":     err.Error(),
	}).Error(message)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s: %s", message, err.Error())}},
		IsError: true,
	}, nil, nil
}
