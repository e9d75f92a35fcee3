package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/health-analytics-server/internal/domain"
)

// messageClient is the subset of the Messages API used here
type messageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicExplainer asks a Claude model for explanations through a circuit
// breaker so an unhealthy provider fails fast.
type AnthropicExplainer struct {
	messages  messageClient
	model     string
	maxTokens int64
	breaker   *gobreaker.CircuitBreaker
	logger    *logrus.Logger
}

// NewAnthropicExplainer creates an explainer from AI configuration.
func NewAnthropicExplainer(cfg domain.AIConfig, logger *logrus.Logger) (*AnthropicExplainer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return newAnthropicExplainer(&client.Messages, cfg, logger), nil
}

func newAnthropicExplainer(messages messageClient, cfg domain.AIConfig, logger *logrus.Logger) *AnthropicExplainer {
	cb := cfg.CircuitBreaker
	if cb.MaxRequests == 0 {
		cb.MaxRequests = 1
	}
	if cb.Interval == 0 {
		cb.Interval = 60 * time.Second
	}
	if cb.Timeout == 0 {
		cb.Timeout = 30 * time.Second
	}
	if cb.FailureThreshold == 0 {
		cb.FailureThreshold = 5
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 300
	}

	settings := gobreaker.Settings{
		Name:        "AnthropicExplainer",
		MaxRequests: cb.MaxRequests,
		Interval:    cb.Interval,
		Timeout:     cb.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cb.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &AnthropicExplainer{
		messages:  messages,
		model:     model,
		maxTokens: maxTokens,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		logger:    logger,
	}
}

// Explain implements Explainer
func (a *AnthropicExplainer) Explain(ctx context.Context, req Request) (string, error) {
	prompt := BuildPrompt(req)

	result, err := a.breaker.Execute(func() (interface{}, error) {
		resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: a.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return nil, err
		}

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			return nil, ErrEmptyExplanation
		}
		return text, nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic explanation failed: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"topic": req.Topic,
		"model": a.model,
	}).Debug("Received explanation")

	return result.(string), nil
}

// State reports the circuit breaker state.
func (a *AnthropicExplainer) State() gobreaker.State {
	return a.breaker.State()
}
