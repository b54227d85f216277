package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"dayplan/internal/core/history"
	"dayplan/internal/core/models"
)

// OpenAIGenerator produces plans through the OpenAI chat API.
type OpenAIGenerator struct {
	llm         *openai.LLM
	model       string
	temperature float64
	attempts    int
	retryDelay  time.Duration
}

// OpenAIOptions configure the generator. Zero values get sane defaults.
type OpenAIOptions struct {
	Model       string
	APIKey      string
	Temperature float64
	Attempts    int
	RetryDelay  time.Duration
}

// NewOpenAIGenerator builds a generator against the OpenAI API.
func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.7
	}

	clientOpts := []openai.Option{openai.WithModel(opts.Model)}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, openai.WithToken(opts.APIKey))
	}
	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &OpenAIGenerator{
		llm:         client,
		model:       opts.Model,
		temperature: opts.Temperature,
		attempts:    opts.Attempts,
		retryDelay:  opts.RetryDelay,
	}, nil
}

// Name returns the backend name.
func (g *OpenAIGenerator) Name() string { return "openai" }

// GeneratePlan sends the session context and conversation to the model
// and parses its structured answer. Transport errors and unparseable
// answers are both retried; the caller sees one proposal or one error.
func (g *OpenAIGenerator) GeneratePlan(ctx context.Context, sess *models.Session, profile *models.Profile) (*Proposal, error) {
	target := history.QuestionTarget(history.ScoreCompleteness(profile))
	system, err := renderSystemPrompt(target)
	if err != nil {
		return nil, err
	}
	userCtx, err := renderContext(sess, profile)
	if err != nil {
		return nil, err
	}

	msgs := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, userCtx),
	}
	for _, m := range sess.Conversation {
		switch m.Role {
		case models.RoleUser:
			msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeHuman, m.Content))
		case models.RoleAssistant:
			msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeAI, m.Content))
		}
	}

	var proposal *Proposal
	err = retryDo(ctx, g.attempts, g.retryDelay, func() error {
		resp, err := g.llm.GenerateContent(ctx, msgs,
			llms.WithJSONMode(),
			llms.WithTemperature(g.temperature))
		if err != nil {
			slog.Warn("plan generation call failed", "model", g.model, "error", err)
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("model returned no choices")
		}
		p, err := ParseProposal(resp.Choices[0].Content)
		if err != nil {
			slog.Warn("unparseable model answer", "model", g.model, "error", err)
			return err
		}
		proposal = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generating plan for %s: %w", sess.Date, err)
	}
	return proposal, nil
}
