package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-analytics-server/internal/config"
	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/explain"
	"github.com/health-analytics-server/internal/history"
	"github.com/health-analytics-server/internal/service"
)

func testConfig(t *testing.T) *config.LiteConfig {
	cfg := config.DefaultLiteConfig()
	cfg.DataDir = t.TempDir()
	cfg.AITimeout = time.Second
	return cfg
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	opts = append([]Option{WithLogger(logger), WithHistoryStore(history.NewMemoryStore(0))}, opts...)

	server, err := NewServer(testConfig(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return server
}

// decodeArgs mirrors how the SDK hands tool arguments to a handler.
func decodeArgs(t *testing.T, raw string, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(raw), dst))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	content, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestNewServer_DefaultsToSQLite(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := testConfig(t)

	server, err := NewServer(cfg, WithLogger(logger))
	require.NoError(t, err)
	defer server.Close()

	_, ok := server.store.(*history.SQLiteStore)
	assert.True(t, ok)
	assert.FileExists(t, cfg.HistoryDBPath())
	assert.DirExists(t, cfg.ExportDir())
	assert.Nil(t, server.explainer)
}

func TestNewServer_AnthropicWhenKeySet(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := testConfig(t)
	cfg.AnthropicAPIKey = "sk-test"

	server, err := NewServer(cfg, WithLogger(logger), WithHistoryStore(history.NewMemoryStore(0)))
	require.NoError(t, err)

	_, ok := server.explainer.(*explain.CachedExplainer)
	assert.True(t, ok)
}

func TestWithHistoryStore_RejectsNil(t *testing.T) {
	_, err := NewServer(testConfig(t), WithHistoryStore(nil))
	assert.Error(t, err)
}

func TestToolNames(t *testing.T) {
	names := ToolNames()
	assert.Len(t, names, 10)
	assert.Equal(t, []string{
		"evaluate_credit_score", "evaluate_disease_risk", "evaluate_mental_health",
		"evaluate_lifestyle", "evaluate_genetic_risk", "interpret_lab_values",
	}, names[:6])
}

func TestEvaluateCreditScore(t *testing.T) {
	server := newTestServer(t)

	var args ProfileArgs
	decodeArgs(t, `{"age":30,"bmi":"22","bloodPressure":"115/75","bloodSugar":90,
		"activityLevel":"active","sleepHours":8,"smokingStatus":"never","alcoholStatus":"none"}`, &args)

	result, _, err := server.evaluateCreditScore(context.Background(), nil, args)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var credit domain.HealthCreditScoreResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &credit))
	assert.Equal(t, 970, credit.Score)
	assert.Equal(t, domain.TrendUp, credit.Trend)
}

func TestEvaluateCreditScore_Explained(t *testing.T) {
	explainer := explain.ExplainerFunc(func(_ context.Context, req explain.Request) (string, error) {
		return "Your score is 800.", nil
	})
	server := newTestServer(t, WithExplainer(explainer))

	var args ProfileArgs
	decodeArgs(t, `{"explain":true}`, &args)
	require.True(t, args.Explain)

	result, _, err := server.evaluateCreditScore(context.Background(), nil, args)
	require.NoError(t, err)

	var out struct {
		Result      domain.HealthCreditScoreResult `json:"result"`
		Explanation service.Explanation            `json:"explanation"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Equal(t, 800, out.Result.Score)
	assert.Equal(t, "Your score is 800.", out.Explanation.Text)
	assert.False(t, out.Explanation.Fallback)
}

func TestEvaluateDiseaseRisk(t *testing.T) {
	server := newTestServer(t)

	var args ProfileArgs
	decodeArgs(t, `{"age":55,"bmi":31,"bloodPressure":"145/95","bloodSugar":130,
		"smokingStatus":"yes","familyHistory":["heart disease","diabetes"]}`, &args)

	result, _, err := server.evaluateDiseaseRisk(context.Background(), nil, args)
	require.NoError(t, err)

	var risk domain.DiseaseRiskResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &risk))
	assert.Equal(t, domain.StatusWarning, risk.Status)
	assert.Greater(t, risk.CardiovascularPercentage, 20)
	assert.LessOrEqual(t, risk.Type2DiabetesPercentage, 99)
}

func TestEvaluateMentalHealth(t *testing.T) {
	server := newTestServer(t)

	var args MentalHealthArgs
	decodeArgs(t, `{"moodLogs":[2,3,2],"sleepHoursAvg":4}`, &args)

	result, _, err := server.evaluateMentalHealth(context.Background(), nil, args)
	require.NoError(t, err)

	var mental domain.MentalHealthResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &mental))
	assert.Equal(t, domain.RiskHigh, mental.RiskBand)
}

func TestEvaluateLifestyle(t *testing.T) {
	server := newTestServer(t)

	var args LifestyleArgs
	decodeArgs(t, `{"mealsPerDay":3,"waterIntake":8,"exerciseMinutes":45,"sugarIntake":"low","vegIntake":"high"}`, &args)

	result, _, err := server.evaluateLifestyle(context.Background(), nil, args)
	require.NoError(t, err)

	var lifestyle domain.LifestyleResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &lifestyle))
	assert.Equal(t, 95, lifestyle.Score)
	assert.Equal(t, domain.TierOptimal, lifestyle.Tier)
}

func TestEvaluateGeneticRisk(t *testing.T) {
	server := newTestServer(t)

	var args GeneticRiskArgs
	decodeArgs(t, `{"familyTree":[{"relation":"parent","conditions":["Heart Disease"]}]}`, &args)

	result, _, err := server.evaluateGeneticRisk(context.Background(), nil, args)
	require.NoError(t, err)

	var risks []domain.GeneticRiskResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &risks))
	require.NotEmpty(t, risks)
	assert.Equal(t, "Heart Disease", risks[0].Condition)
	assert.Equal(t, 30, risks[0].RiskPercentage)
}

func TestInterpretLabValues(t *testing.T) {
	server := newTestServer(t)

	var args LabValuesArgs
	decodeArgs(t, `{"labResults":[{"testName":"Fasting Blood Sugar","value":"130","unit":"mg/dL"}]}`, &args)

	result, _, err := server.interpretLabValues(context.Background(), nil, args)
	require.NoError(t, err)

	var labs []domain.LabInterpretation
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &labs))
	require.Len(t, labs, 1)
	assert.True(t, labs[0].IsAnomalous)
	assert.Equal(t, 130.0, labs[0].Value)
}

func TestInterpretLabValues_ExplainFallback(t *testing.T) {
	explainer := explain.ExplainerFunc(func(context.Context, explain.Request) (string, error) {
		return "", nil
	})
	server := newTestServer(t, WithExplainer(explainer))

	var args LabValuesArgs
	decodeArgs(t, `{"labResults":[{"testName":"Fasting Blood Sugar","value":130,"unit":"mg/dL"}],"explain":true}`, &args)

	result, _, err := server.interpretLabValues(context.Background(), nil, args)
	require.NoError(t, err)

	var out ExplainedResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.True(t, out.Explanation.Fallback)
	assert.Equal(t, "1 of 1 lab results are outside their reference range.", out.Explanation.Text)
}

func TestBuildHealthReport_ArchivesAndLists(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	var args ReportArgs
	decodeArgs(t, `{"userId":"user-1","profile":{"age":30,"bmi":22},"lifestyle":{"mealsPerDay":3}}`, &args)

	result, _, err := server.buildHealthReport(ctx, nil, args)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var report service.Report
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &report))
	assert.Equal(t, "user-1", report.UserID)
	assert.True(t, report.Archived)
	require.NotNil(t, report.CreditScore)

	// unchanged inputs are not archived twice
	result, _, err = server.buildHealthReport(ctx, nil, args)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &report))
	assert.False(t, report.Archived)

	result, _, err = server.getScoreHistory(ctx, nil, HistoryArgs{UserID: "user-1"})
	require.NoError(t, err)
	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &records))
	require.Len(t, records, 1)
	assert.Equal(t, float64(report.CreditScore.Score), records[0].Scores[history.ScoreCredit])
}

func TestBuildHealthReport_RequiresUser(t *testing.T) {
	server := newTestServer(t)

	result, _, err := server.buildHealthReport(context.Background(), nil, ReportArgs{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Failed to build report")
}

func TestGetScoreHistory_RequiresUser(t *testing.T) {
	server := newTestServer(t)

	result, _, err := server.getScoreHistory(context.Background(), nil, HistoryArgs{UserID: "  "})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestExportImportScoreHistory(t *testing.T) {
	ctx := context.Background()
	source := newTestServer(t)

	_, err := source.service.ArchiveIfChanged(ctx, "user-1", map[string]float64{history.ScoreCredit: 800})
	require.NoError(t, err)

	result, _, err := source.exportScoreHistory(ctx, nil, struct{}{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var export ExportResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &export))
	assert.True(t, export.Success)
	assert.Equal(t, int64(1), export.Count)
	assert.FileExists(t, export.FilePath)
	assert.Equal(t, source.config.ExportDir(), filepath.Dir(export.FilePath))

	target := newTestServer(t)
	for i, want := range []ImportResult{{Imported: 1}, {Skipped: 1}} {
		result, _, err = target.importScoreHistory(ctx, nil, ImportArgs{FilePath: export.FilePath})
		require.NoError(t, err)

		var imported ImportResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &imported))
		assert.Equal(t, want.Imported, imported.Imported, "round %d", i)
		assert.Equal(t, want.Skipped, imported.Skipped, "round %d", i)
	}
}

func TestImportScoreHistory_Legacy(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	blob, err := json.Marshal(`[
		{"timestamp":"2026-02-01T10:00:00Z","score":790},
		{"timestamp":"2026-02-02T10:00:00Z","algorithmVersion":"0.9","scores":{"credit_score":812}}
	]`)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(path, blob, 0644))

	for i, want := range []ImportResult{{Imported: 2}, {Skipped: 2}} {
		result, _, err := server.importScoreHistory(ctx, nil, ImportArgs{FilePath: path, UserID: "user-1"})
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))

		var imported ImportResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &imported))
		assert.Equal(t, want.Imported, imported.Imported, "round %d", i)
		assert.Equal(t, want.Skipped, imported.Skipped, "round %d", i)
	}

	records, err := server.service.History(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 812.0, records[0].Scores[history.ScoreCredit])
	assert.Equal(t, "legacy", records[1].AlgorithmVersion)

	// without a user the file is read as a versioned log
	result, _, err := server.importScoreHistory(ctx, nil, ImportArgs{FilePath: path, UserID: ""})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Failed to import history")

	result, _, err = server.importScoreHistory(ctx, nil, ImportArgs{FilePath: filepath.Join(t.TempDir(), "missing.json"), UserID: "user-1"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestImportScoreHistory_Errors(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	result, _, err := server.importScoreHistory(ctx, nil, ImportArgs{})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, _, err = server.importScoreHistory(ctx, nil, ImportArgs{FilePath: filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version":"9.9","records":[]}`), 0644))
	result, _, err = server.importScoreHistory(ctx, nil, ImportArgs{FilePath: bad})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Failed to import history")
}

func TestSchemas(t *testing.T) {
	profile := profileSchema()
	assert.Equal(t, "object", profile.Type)
	assert.ElementsMatch(t, []string{"number", "string", "null"}, profile.Properties["age"].Types)
	assert.Contains(t, profile.Properties, "explain")

	report := reportSchema()
	assert.Equal(t, []string{"userId"}, report.Required)
	assert.NotContains(t, report.Properties["profile"].Properties, "explain")
	assert.Equal(t, "array", report.Properties["labResults"].Type)

	assert.Equal(t, []string{"labResults"}, labResultsSchema().Required)
	assert.Len(t, lifestyleSchema().Properties["sugarIntake"].Enum, 3)
}
