package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"dayplan/internal/core/models"
)

// wireProposal mirrors the JSON shape we ask the model for. Every field
// is optional; the model routinely drops or misnames parts of it.
type wireProposal struct {
	State     string     `json:"state"`
	Questions []string   `json:"questions"`
	Plan      *wirePlan  `json:"plan"`
	Schedule  []wireItem `json:"schedule"` // some answers inline the plan
}

type wirePlan struct {
	Schedule   []wireItem `json:"schedule"`
	Priorities []string   `json:"priorities"`
	Notes      string     `json:"notes"`
}

type wireItem struct {
	Time             string `json:"time"`
	Task             string `json:"task"`
	EstimatedMinutes *int   `json:"estimated_minutes"`
	Status           string `json:"status"`
}

// ParseProposal decodes a model answer into a Proposal, tolerating the
// usual misbehavior: markdown fences, prose around the JSON object,
// missing state field, plan nested or inlined at the top level. It
// fails only when no plan and no questions can be recovered.
func ParseProposal(raw string) (*Proposal, error) {
	body, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object in model output (%d bytes)", len(raw))
	}

	var wire wireProposal
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("decoding proposal: %w", err)
	}

	p := &Proposal{Questions: cleanQuestions(wire.Questions)}

	wp := wire.Plan
	if wp == nil && len(wire.Schedule) > 0 {
		wp = &wirePlan{Schedule: wire.Schedule}
	}
	if wp != nil && len(wp.Schedule) > 0 {
		plan := &models.Plan{
			Priorities: wp.Priorities,
			Notes:      strings.TrimSpace(wp.Notes),
		}
		for _, it := range wp.Schedule {
			if strings.TrimSpace(it.Task) == "" {
				continue
			}
			plan.Schedule = append(plan.Schedule, models.ScheduleItem{
				Time:             strings.TrimSpace(it.Time),
				Task:             strings.TrimSpace(it.Task),
				EstimatedMinutes: it.EstimatedMinutes,
				Status:           models.TaskStatus(it.Status),
			})
		}
		if len(plan.Schedule) > 0 {
			p.Plan = plan
		}
	}

	if p.Plan == nil && len(p.Questions) == 0 {
		return nil, fmt.Errorf("proposal has neither plan nor questions")
	}

	p.State = inferState(wire.State, p)
	return p, nil
}

// extractJSON strips markdown fences and surrounding prose, returning
// the outermost {...} span.
func extractJSON(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func cleanQuestions(qs []string) []string {
	var out []string
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// inferState validates the model's suggested state and falls back to
// what the proposal's contents imply: a plan means feedback, questions
// alone mean more questions.
func inferState(declared string, p *Proposal) models.SessionState {
	st := models.SessionState(strings.ToLower(strings.TrimSpace(declared)))
	if st.Valid() && st != models.StateIdle {
		// The model never gets to declare a session finished.
		if st == models.StateDone {
			st = models.StateFeedback
		}
		return st
	}
	if p.Plan != nil {
		return models.StateFeedback
	}
	return models.StateQuestions
}
