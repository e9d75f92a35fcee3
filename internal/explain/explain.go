// Package explain turns engine scores into short natural-language explanations.
//
// Explanations come from an external language model and are never trusted on
// their own: Guard bounds every call with a hard timeout and replaces failed,
// empty or ungrounded answers with the engine's deterministic sentence.
package explain

import (
	"context"
	"errors"
)

// Topics identify which evaluator produced the score being explained.
const (
	TopicCreditScore  = "credit_score"
	TopicDiseaseRisk  = "disease_risk"
	TopicMentalHealth = "mental_health"
	TopicLifestyle    = "lifestyle"
	TopicGeneticRisk  = "genetic_risk"
	TopicLabs         = "lab_results"
)

var (
	// ErrUngrounded is returned when an explanation cites a number the engine
	// did not produce.
	ErrUngrounded = errors.New("explanation cites numbers not present in the score")
	// ErrNoExplainer is returned when no explanation provider is configured.
	ErrNoExplainer = errors.New("no explainer configured")
	// ErrEmptyExplanation is returned when the provider answers with no text.
	ErrEmptyExplanation = errors.New("empty explanation")
)

// Request carries a score and the supporting profile fields it was computed
// from. It never carries the rule breakdown.
type Request struct {
	Topic  string            `json:"topic"`
	Score  float64           `json:"score"`
	Label  string            `json:"label,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Explainer produces free-text explanations for a score.
type Explainer interface {
	Explain(ctx context.Context, req Request) (string, error)
}

// ExplainerFunc adapts a function to the Explainer interface.
type ExplainerFunc func(ctx context.Context, req Request) (string, error)

// Explain implements Explainer
func (f ExplainerFunc) Explain(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
