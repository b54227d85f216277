// Package llm talks to the language model that proposes daily plans.
// The planning engine treats it as a black box: any failure means "no
// plan available this turn" and leaves session state unchanged.
package llm

import (
	"context"

	"dayplan/internal/core/models"
)

// Proposal is the model's structured answer: a candidate plan and/or
// clarifying questions, plus the state the model suggests moving to.
// Either part may be missing; a proposal with neither is rejected at
// parse time.
type Proposal struct {
	Plan      *models.Plan
	Questions []string
	State     models.SessionState
}

// Generator is the interface for plan-generating backends. Retries and
// backoff live behind this boundary; callers see one answer or one
// error.
type Generator interface {
	// GeneratePlan produces a candidate plan for the session, using the
	// conversation log and profile as context.
	GeneratePlan(ctx context.Context, sess *models.Session, profile *models.Profile) (*Proposal, error)

	// Name returns the backend name (e.g. "openai").
	Name() string
}
