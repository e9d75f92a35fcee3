package explain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single explanation call.
const DefaultTimeout = 4 * time.Second

// Guard races an Explainer against a hard timeout and falls back to a
// deterministic sentence whenever the answer cannot be used.
type Guard struct {
	explainer Explainer
	timeout   time.Duration
	logger    *logrus.Logger
}

// NewGuard creates a guard. A nil explainer always yields the fallback and a
// non-positive timeout uses DefaultTimeout.
func NewGuard(explainer Explainer, timeout time.Duration, logger *logrus.Logger) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{
		explainer: explainer,
		timeout:   timeout,
		logger:    logger,
	}
}

type outcome struct {
	text string
	err  error
}

// Explain returns the explainer's text, or fallback with usedFallback set when
// the call times out, fails, returns nothing or cites ungrounded numbers.
// Failures are logged at warning level and never returned.
func (g *Guard) Explain(ctx context.Context, req Request, fallback string) (text string, usedFallback bool) {
	if g == nil || g.explainer == nil {
		return fallback, true
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// buffered so a late answer never blocks the abandoned goroutine
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("explainer panicked: %v", r)}
			}
		}()
		text, err := g.explainer.Explain(ctx, req)
		done <- outcome{text: text, err: err}
	}()

	var out outcome
	select {
	case <-ctx.Done():
		out.err = ctx.Err()
	case out = <-done:
	}

	if out.err == nil {
		if out.text == "" {
			out.err = ErrEmptyExplanation
		} else {
			out.err = CheckGrounded(out.text, req)
		}
	}

	if out.err != nil {
		g.warn(req, out.err)
		return fallback, true
	}
	return out.text, false
}

func (g *Guard) warn(req Request, err error) {
	reason := "error"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.Is(err, context.Canceled):
		reason = "canceled"
	case errors.Is(err, ErrUngrounded):
		reason = "ungrounded"
	case errors.Is(err, ErrEmptyExplanation):
		reason = "empty"
	}

	g.logger.WithFields(logrus.Fields{
		"topic":   req.Topic,
		"reason":  reason,
		"timeout": g.timeout.String(),
		"error":   err.Error(),
	}).Warn("Using deterministic explanation fallback")
}
