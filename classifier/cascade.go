// Package classifier runs the three-stage eligibility cascade over one job.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobscout/config"
	"jobscout/models"
	"jobscout/ratelimit"
	"jobscout/reasoning"
)

// ServiceError wraps a failed reasoning service invocation
type ServiceError struct {
	Stage string
	Err   error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("reasoning service failed during %s stage: %v", e.Stage, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Cascade evaluates stages in order and stops at the first stage that does
// not answer yes
type Cascade struct {
	reasoner reasoning.Reasoner
	limiter  *ratelimit.Limiter
	stages   []Stage
	rubric   config.Rubric
	logger   *slog.Logger
	now      func() time.Time
}

// NewCascade wires a cascade. It expects exactly models.StageCount stages.
func NewCascade(reasoner reasoning.Reasoner, limiter *ratelimit.Limiter, stages []Stage, rubric config.Rubric, logger *slog.Logger) (*Cascade, error) {
	if len(stages) != models.StageCount {
		return nil, fmt.Errorf("classifier: need %d stages, got %d", models.StageCount, len(stages))
	}
	if reasoner == nil || limiter == nil {
		return nil, errors.New("classifier: reasoner and limiter are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cascade{
		reasoner: reasoner,
		limiter:  limiter,
		stages:   stages,
		rubric:   rubric,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Classify runs the cascade over content. It never returns an error: a
// service failure is recorded on the outcome and the item is skipped.
func (c *Cascade) Classify(ctx context.Context, content models.JobContent) models.ClassificationOutcome {
	outcome := models.ClassificationOutcome{
		ID:          content.ID,
		FinalAction: models.ActionSkipped,
		Language:    content.Language,
		Description: content.Text,
	}

	passed := 0
	for i, stage := range c.stages {
		n := i + 1
		verdict, explanation, answer, err := c.evaluate(ctx, stage, content.Text)
		if err != nil {
			outcome.SetStage(n, false, explanation)
			outcome.ServiceError = err.Error()
			c.logger.Warn("cascade aborted", "id", content.ID, "stage", stage.Name, "err", err)
			break
		}

		outcome.SetStage(n, verdict == models.VerdictYes, explanation)
		outcome.SetAnswer(n, answer)
		c.logger.Info("stage evaluated", "id", content.ID, "stage", stage.Name, "verdict", verdict)

		if verdict == models.VerdictInconclusive {
			outcome.InconclusiveStage = n
			c.logger.Warn("inconclusive answer", "id", content.ID, "stage", stage.Name, "answer", answer)
		}
		if verdict != models.VerdictYes {
			break
		}
		passed++
	}

	if passed == len(c.stages) {
		outcome.FinalAction = models.ActionBookmarked
	}
	outcome.ProcessedAt = c.now().UTC()
	return outcome
}

// evaluate runs the two-hop protocol of one stage: a free-text explanation,
// then a strict yes/no re-ask over it. answer is the raw re-ask reply.
func (c *Cascade) evaluate(ctx context.Context, stage Stage, text string) (verdict models.Verdict, explanation, answer string, err error) {
	prompt, err := stage.renderPrompt(text, c.rubric)
	if err != nil {
		return "", "", "", err
	}
	explanation, err = c.invoke(ctx, stage, prompt)
	if err != nil {
		return "", "", "", err
	}

	followUp, err := stage.renderFollowUp(explanation)
	if err != nil {
		return "", explanation, "", err
	}
	answer, err = c.invoke(ctx, stage, followUp)
	if err != nil {
		return "", explanation, "", err
	}
	return ParseVerdict(answer), explanation, answer, nil
}

func (c *Cascade) invoke(ctx context.Context, stage Stage, prompt string) (string, error) {
	if err := c.limiter.WaitIfNeeded(ctx); err != nil {
		return "", &ServiceError{Stage: stage.Name, Err: err}
	}
	answer, err := c.reasoner.Invoke(ctx, prompt)
	if err != nil {
		return "", &ServiceError{Stage: stage.Name, Err: err}
	}
	return answer, nil
}
