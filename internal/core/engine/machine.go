// Package engine drives a planning session through its conversation
// states. The machine mutates an in-memory session and tells the caller
// what to do next; persistence is the caller's job.
package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"dayplan/internal/core/models"
)

// Action is what the caller should execute after an Advance call.
type Action string

const (
	// ActionNone signals a terminal session; nothing changed.
	ActionNone Action = "none"
	// ActionReprompt means the input was rejected; ask the user again.
	ActionReprompt Action = "reprompt"
	// ActionAskQuestion means more clarifying answers are needed.
	ActionAskQuestion Action = "ask_question"
	// ActionGeneratePlan means the caller should invoke the plan
	// generator and feed the proposal back through ApplyProposal.
	ActionGeneratePlan Action = "generate_plan"
	// ActionAwaitFeedback means a plan exists and user feedback is next.
	ActionAwaitFeedback Action = "await_feedback"
	// ActionFinish means the plan was accepted and the session is done.
	ActionFinish Action = "finish"
)

// Input is one user utterance. Question carries the prompt the text
// answers while the session is collecting constraints.
type Input struct {
	Text     string
	Question string
}

// DefaultAffirmations accept a plan as-is. Matching is trimmed and
// case-insensitive.
var DefaultAffirmations = []string{"done", "looks good", "yes", "ok", "perfect", "lgtm"}

// Machine advances sessions. MinAnswers is the number of clarifying
// answers required before a plan is generated; zero skips the question
// round entirely (rich profiles need fewer questions).
type Machine struct {
	MinAnswers   int
	Affirmations []string
}

// New builds a machine with the default affirmation set.
func New(minAnswers int) *Machine {
	return &Machine{MinAnswers: minAnswers, Affirmations: DefaultAffirmations}
}

// Advance consumes one user input and moves the session forward,
// returning the action the caller should take. A done session is never
// mutated. Out-of-order input (external callers misbehaving) is logged
// and mapped to the nearest sensible transition rather than failing.
func (m *Machine) Advance(s *models.Session, in Input) Action {
	text := strings.TrimSpace(in.Text)

	switch s.State {
	case models.StateDone:
		return ActionNone

	case models.StateIdle:
		if text == "" {
			return ActionReprompt
		}
		if !s.SetGoal(text) {
			// Goal already present means a stale caller replayed the
			// opening turn; treat the text as a question-round answer.
			slog.Warn("input for idle session that already has a goal", "date", s.Date)
			s.State = models.StateQuestions
			return m.Advance(s, in)
		}
		s.AddMessage(models.RoleUser, text)
		s.State = models.StateQuestions
		s.Touch()
		if m.satisfied(s) {
			s.State = models.StateFeedback
			return ActionGeneratePlan
		}
		return ActionAskQuestion

	case models.StateQuestions:
		if text == "" {
			return ActionReprompt
		}
		question := strings.TrimSpace(in.Question)
		if question == "" {
			question = fmt.Sprintf("Clarification %d", len(s.Constraints)+1)
		}
		s.AddConstraint(question, text)
		s.AddMessage(models.RoleUser, question+": "+text)
		s.Touch()
		if m.satisfied(s) {
			s.State = models.StateFeedback
			return ActionGeneratePlan
		}
		return ActionAskQuestion

	case models.StateFeedback:
		if s.Plan == nil {
			// Feedback without a plan to react to: regenerate.
			slog.Warn("feedback state without a plan", "date", s.Date)
			return ActionGeneratePlan
		}
		if text == "" {
			return ActionReprompt
		}
		if m.accepts(text) {
			s.AddMessage(models.RoleUser, text)
			s.State = models.StateDone
			s.Touch()
			return ActionFinish
		}
		// Revision request: keep state, ask the generator again.
		s.AddMessage(models.RoleUser, text)
		s.Revisions++
		s.RevisionNotes = append(s.RevisionNotes, text)
		s.Touch()
		return ActionGeneratePlan
	}

	slog.Warn("session in unknown state, resetting to idle", "date", s.Date, "state", s.State)
	s.State = models.StateIdle
	return ActionReprompt
}

func (m *Machine) satisfied(s *models.Session) bool {
	return len(s.Constraints) >= m.MinAnswers
}

func (m *Machine) accepts(text string) bool {
	affirmations := m.Affirmations
	if len(affirmations) == 0 {
		affirmations = DefaultAffirmations
	}
	for _, a := range affirmations {
		if strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(a)) {
			return true
		}
	}
	return false
}

// ApplyProposal adopts a generated plan into the session, merging with
// any previous plan so execution progress survives a revision. It also
// records a compact assistant summary in the conversation; raw model
// JSON never enters the context log.
func ApplyProposal(s *models.Session, proposal *models.Plan) {
	if proposal == nil {
		return
	}
	proposal.BackfillEstimates()
	for i := range proposal.Schedule {
		if proposal.Schedule[i].Status == "" {
			proposal.Schedule[i].Status = models.StatusNotStarted
		}
	}
	if len(proposal.Priorities) > 5 {
		proposal.Priorities = proposal.Priorities[:5]
	}
	if s.Plan != nil {
		MergeSchedules(proposal, s.Plan)
	}
	s.Plan = proposal
	s.LLMCalls++
	s.AddMessage(models.RoleAssistant, summarizePlan(proposal))
	s.Touch()
}

// MergeSchedules carries execution state from prev into next. An item in
// next whose task name matches a prev item (exact, case-insensitive)
// that was already started keeps that item's status, timestamps, skip
// reason, and audit trail; the proposed time and estimate win otherwise.
// Each prev item donates to at most one next item, so a duplicated task
// name in the proposal cannot clone execution history. Matching is
// deliberately exact; fuzzy matching is a possible later extension.
func MergeSchedules(next, prev *models.Plan) {
	consumed := make([]bool, len(prev.Schedule))
	for i := range next.Schedule {
		item := &next.Schedule[i]
		for j := range prev.Schedule {
			old := &prev.Schedule[j]
			if consumed[j] || old.Status == models.StatusNotStarted || !old.SameTask(item.Task) {
				continue
			}
			item.Status = old.Status
			item.ActualStart = old.ActualStart
			item.ActualEnd = old.ActualEnd
			item.SkipReason = old.SkipReason
			item.Edits = old.Edits
			consumed[j] = true
			break
		}
		if item.Status == "" {
			item.Status = models.StatusNotStarted
		}
	}
}

func summarizePlan(p *models.Plan) string {
	var b strings.Builder
	b.WriteString("Proposed plan:\n")
	for _, item := range p.Schedule {
		fmt.Fprintf(&b, "  %s  %s\n", item.Time, item.Task)
	}
	if len(p.Priorities) > 0 {
		b.WriteString("Priorities: " + strings.Join(p.Priorities, "; "))
	}
	return strings.TrimRight(b.String(), "\n")
}
