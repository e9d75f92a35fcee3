package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/health-analytics-server/internal/config"
	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/explain"
	"github.com/health-analytics-server/internal/service"
)

type options struct {
	file    string
	summary bool
	explain bool
	verbose bool
}

// evaluation is what a subcommand produces: the result, an optional
// explanation request and a summary printer.
type evaluation struct {
	result   interface{}
	req      explain.Request
	fallback string
	summary  func(w io.Writer)
}

type evaluator func(svc *service.AnalyticsService, data []byte) (*evaluation, error)

func newRootCmd(stdin io.Reader) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "healthscore",
		Short:        "Evaluate health scores from a JSON or YAML input file",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "-", "input file (.json, .yaml or .yml); - reads JSON from stdin")
	root.PersistentFlags().BoolVar(&opts.summary, "summary", false, "print a colored summary instead of JSON")
	root.PersistentFlags().BoolVar(&opts.explain, "explain", false, "attach a plain-language explanation")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log evaluations to stderr")

	commands := []struct {
		use, short string
		run        evaluator
	}{
		{"credit", "Compute the 300-1000 health credit score from a profile", evalCredit},
		{"disease", "Estimate cardiovascular and type 2 diabetes risk from a profile", evalDisease},
		{"mental", "Score mental wellness from mood logs and sleep", evalMental},
		{"lifestyle", "Score lifestyle questionnaire answers", evalLifestyle},
		{"genetic", "Estimate inherited risk from a family tree", evalGenetic},
		{"labs", "Interpret lab results against reference ranges", evalLabs},
	}
	for _, c := range commands {
		run := c.run
		root.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return execute(cmd.Context(), opts, stdin, cmd.OutOrStdout(), run)
			},
		})
	}

	root.AddCommand(newRangesCmd(opts))
	return root
}

func execute(ctx context.Context, opts *options, stdin io.Reader, out io.Writer, run evaluator) error {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := readInput(opts.file, stdin)
	if err != nil {
		return err
	}

	svc, err := newService(opts)
	if err != nil {
		return err
	}

	eval, err := run(svc, data)
	if err != nil {
		return err
	}

	var explanation *service.Explanation
	if opts.explain {
		e := svc.Explain(ctx, eval.req, eval.fallback)
		explanation = &e
	}

	if opts.summary {
		eval.summary(out)
		if explanation != nil {
			fmt.Fprintf(out, "\n%s\n", explanation.Text)
		}
		return nil
	}

	var payload interface{} = eval.result
	if explanation != nil {
		payload = struct {
			Result      interface{}         `json:"result"`
			Explanation service.Explanation `json:"explanation"`
		}{eval.result, *explanation}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// newService builds an analytics service without history. Explanations use
// Anthropic when ANTHROPIC_API_KEY is set and fall back otherwise.
func newService(opts *options) (*service.AnalyticsService, error) {
	cfg := config.LoadLiteConfig()
	logger := config.LiteLogger(cfg)
	if !opts.verbose {
		logger.SetLevel(logrus.WarnLevel)
	}

	var explainer explain.Explainer
	if opts.explain && cfg.AIEnabled() {
		anthropic, err := explain.NewAnthropicExplainer(domain.AIConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		explainer = anthropic
	}

	guard := explain.NewGuard(explainer, cfg.AITimeout, logger)
	return service.NewAnalyticsService(logger, guard, nil), nil
}

// readInput returns the input as JSON. YAML files are converted so the
// tolerant JSON decoding of the domain types applies to both formats.
func readInput(path string, stdin io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML input: %w", err)
		}
		data, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML input: %w", err)
		}
	}
	return data, nil
}

func decode(data []byte, dst interface{}) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

func evalCredit(svc *service.AnalyticsService, data []byte) (*evaluation, error) {
	var profile domain.UserProfileParams
	if err := decode(data, &profile); err != nil {
		return nil, err
	}
	result := svc.EvaluateCreditScore(profile)
	req, fallback := service.CreditExplanationRequest(profile, result)
	return &evaluation{result, req, fallback, func(w io.Writer) { printCredit(w, result) }}, nil
}

func evalDisease(svc *service.AnalyticsService, data []byte) (*evaluation, error) {
	var profile domain.UserProfileParams
	if err := decode(data, &profile); err != nil {
		return nil, err
	}
	result := svc.EvaluateDiseaseRisks(profile)
	req, fallback := service.DiseaseExplanationRequest(profile, result)
	return &evaluation{result, req, fallback, func(w io.Writer) { printDisease(w, result) }}, nil
}

func evalMental(svc *service.AnalyticsService, data []byte) (*evaluation, error) {
	var in domain.MentalHealthInput
	if err := decode(data, &in); err != nil {
		return nil, err
	}
	result := svc.EvaluateMentalHealth(in)
	req, fallback := service.MentalExplanationRequest(in, result)
	return &evaluation{result, req, fallback, func(w io.Writer) { printMental(w, result) }}, nil
}

func evalLifestyle(svc *service.AnalyticsService, data []byte) (*evaluation, error) {
	var answers domain.LifestyleAnswers
	if err := decode(data, &answers); err != nil {
		return nil, err
	}
	result := svc.EvaluateLifestyle(answers)
	req, fallback := service.LifestyleExplanationRequest(answers, result)
	return &evaluation{result, req, fallback, func(w io.Writer) { printLifestyle(w, result) }}, nil
}

func evalGenetic(svc *service.AnalyticsService, data []byte) (*evaluation, error) {
	var in struct {
		FamilyTree []domain.FamilyMember `json:"familyTree"`
	}
	if err := decode(data, &in); err != nil {
		return nil, err
	}
	results := svc.EvaluateGeneticRisk(in.FamilyTree)
	req, fallback := service.GeneticExplanationRequest(in.FamilyTree, results)
	return &evaluation{results, req, fallback, func(w io.Writer) { printGenetic(w, results) }}, nil
}

func evalLabs(svc *service.AnalyticsService, data []byte) (*evaluation, error) {
	var in struct {
		LabResults []domain.LabResult `json:"labResults"`
	}
	if err := decode(data, &in); err != nil {
		return nil, err
	}
	results := svc.EvaluateLabValues(in.LabResults)
	req, fallback := service.LabExplanationRequest(results)
	return &evaluation{results, req, fallback, func(w io.Writer) { printLabs(w, results) }}, nil
}

func newRangesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ranges",
		Short: "List the lab reference ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts)
			if err != nil {
				return err
			}
			ranges := svc.ReferenceRanges()
			out := cmd.OutOrStdout()
			if opts.summary {
				printRanges(out, ranges)
				return nil
			}
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(ranges)
		},
	}
}
