package engine

import (
	"testing"
	"time"

	"dayplan/internal/core/models"
)

func TestAdvanceIdleEmptyInput(t *testing.T) {
	m := New(1)
	s := models.NewSession("2026-03-14")

	action := m.Advance(s, Input{Text: "   "})
	if action != ActionReprompt {
		t.Errorf("action = %v, want %v", action, ActionReprompt)
	}
	if s.State != models.StateIdle || s.Goal != "" {
		t.Errorf("empty input must not advance: state=%v goal=%q", s.State, s.Goal)
	}
}

func TestAdvanceIdleToQuestions(t *testing.T) {
	m := New(1)
	s := models.NewSession("2026-03-14")

	action := m.Advance(s, Input{Text: "Plan my day"})
	if action != ActionAskQuestion {
		t.Errorf("action = %v, want %v", action, ActionAskQuestion)
	}
	if s.State != models.StateQuestions || s.Goal != "Plan my day" {
		t.Errorf("state=%v goal=%q", s.State, s.Goal)
	}
}

func TestAdvanceZeroQuestionThreshold(t *testing.T) {
	m := New(0)
	s := models.NewSession("2026-03-14")

	action := m.Advance(s, Input{Text: "Plan my day"})
	if action != ActionGeneratePlan {
		t.Errorf("action = %v, want %v", action, ActionGeneratePlan)
	}
	if s.State != models.StateFeedback {
		t.Errorf("state = %v, want feedback", s.State)
	}
}

func TestAdvanceDoneIsNoOp(t *testing.T) {
	m := New(1)
	s := models.NewSession("2026-03-14")
	s.State = models.StateDone
	before := *s

	if action := m.Advance(s, Input{Text: "one more thing"}); action != ActionNone {
		t.Errorf("action = %v, want %v", action, ActionNone)
	}
	if s.State != before.State || len(s.Conversation) != len(before.Conversation) {
		t.Error("done session must not be mutated")
	}
}

func TestFullPlanningFlow(t *testing.T) {
	m := New(1)
	s := models.NewSession("2026-03-14")

	if action := m.Advance(s, Input{Text: "Plan my day"}); action != ActionAskQuestion {
		t.Fatalf("idle: action = %v", action)
	}
	if action := m.Advance(s, Input{Text: "By 18:00", Question: "Any hard deadline?"}); action != ActionGeneratePlan {
		t.Fatalf("questions: action = %v", action)
	}
	if len(s.Constraints) != 1 || s.Constraints[0].Answer != "By 18:00" {
		t.Fatalf("constraints = %+v", s.Constraints)
	}

	ApplyProposal(s, &models.Plan{Schedule: []models.ScheduleItem{
		{Time: "09:00-10:00", Task: "Email"},
		{Time: "10:00-12:00", Task: "Deep work"},
		{Time: "13:00-14:00", Task: "Review"},
	}})

	if action := m.Advance(s, Input{Text: "looks good"}); action != ActionFinish {
		t.Fatalf("feedback: action = %v", action)
	}
	if s.State != models.StateDone {
		t.Errorf("state = %v, want done", s.State)
	}
	if len(s.Plan.Schedule) != 3 {
		t.Errorf("schedule length = %d, want 3", len(s.Plan.Schedule))
	}
	if s.Revisions != 0 {
		t.Errorf("revisions = %d, want 0", s.Revisions)
	}
}

func TestRevisionPreservesProgress(t *testing.T) {
	m := New(0)
	s := models.NewSession("2026-03-14")
	m.Advance(s, Input{Text: "Plan my day"})

	start := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)
	end := start.Add(50 * time.Minute)
	ApplyProposal(s, &models.Plan{Schedule: []models.ScheduleItem{
		{Time: "09:00-10:00", Task: "Email"},
		{Time: "10:00-12:00", Task: "Deep Work"},
		{Time: "13:00-14:00", Task: "Review"},
	}})
	s.Plan.Schedule[0].Status = models.StatusCompleted
	s.Plan.Schedule[0].ActualStart = &start
	s.Plan.Schedule[0].ActualEnd = &end
	s.Plan.Schedule[1].Status = models.StatusInProgress
	s.Plan.Schedule[1].ActualStart = &start

	action := m.Advance(s, Input{Text: "add a lunch break"})
	if action != ActionGeneratePlan {
		t.Fatalf("action = %v, want %v", action, ActionGeneratePlan)
	}
	if s.State != models.StateFeedback {
		t.Fatalf("state = %v, want feedback", s.State)
	}
	if s.Revisions != 1 || len(s.RevisionNotes) != 1 {
		t.Fatalf("revisions = %d notes = %v", s.Revisions, s.RevisionNotes)
	}

	// Revised proposal matches the first three tasks by name (different
	// case) and adds a lunch item.
	ApplyProposal(s, &models.Plan{Schedule: []models.ScheduleItem{
		{Time: "09:00-10:00", Task: "email"},
		{Time: "10:00-12:00", Task: "deep work"},
		{Time: "12:00-13:00", Task: "Lunch break"},
		{Time: "13:00-14:00", Task: "review"},
	}})

	sched := s.Plan.Schedule
	if len(sched) != 4 {
		t.Fatalf("schedule length = %d, want 4", len(sched))
	}
	if sched[0].Status != models.StatusCompleted || sched[0].ActualEnd == nil {
		t.Errorf("completed task lost progress: %+v", sched[0])
	}
	if sched[1].Status != models.StatusInProgress || sched[1].ActualStart == nil {
		t.Errorf("in-progress task lost progress: %+v", sched[1])
	}
	if sched[2].Status != models.StatusNotStarted {
		t.Errorf("new lunch item status = %v, want not_started", sched[2].Status)
	}
	if sched[3].Status != models.StatusNotStarted {
		t.Errorf("untouched task status = %v, want not_started", sched[3].Status)
	}
}

func TestMergeSchedulesDuplicateNames(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	prev := &models.Plan{Schedule: []models.ScheduleItem{
		{Time: "09:00-10:00", Task: "Email", Status: models.StatusCompleted,
			ActualStart: &start, ActualEnd: &end,
			Edits: []models.TimeEdit{{Field: models.FieldActualStart, NewValue: start}}},
	}}
	// The revised schedule splits the task into two same-named blocks.
	next := &models.Plan{Schedule: []models.ScheduleItem{
		{Time: "09:00-09:30", Task: "Email"},
		{Time: "16:00-16:30", Task: "email"},
	}}

	MergeSchedules(next, prev)

	if next.Schedule[0].Status != models.StatusCompleted || len(next.Schedule[0].Edits) != 1 {
		t.Errorf("first match should inherit progress: %+v", next.Schedule[0])
	}
	second := next.Schedule[1]
	if second.Status != models.StatusNotStarted {
		t.Errorf("duplicate must not clone status: %+v", second)
	}
	if second.ActualStart != nil || second.ActualEnd != nil || len(second.Edits) != 0 {
		t.Errorf("duplicate must not clone history: %+v", second)
	}
}

func TestAcceptanceMatching(t *testing.T) {
	m := New(0)
	tests := []struct {
		text string
		want bool
	}{
		{"done", true},
		{"DONE", true},
		{"  Looks Good  ", true},
		{"yes", true},
		{"move lunch earlier", false},
		{"yes, but move lunch", false},
	}
	for _, tt := range tests {
		if got := m.accepts(tt.text); got != tt.want {
			t.Errorf("accepts(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestApplyProposalBackfillsEstimates(t *testing.T) {
	s := models.NewSession("2026-03-14")
	s.State = models.StateFeedback
	ApplyProposal(s, &models.Plan{Schedule: []models.ScheduleItem{
		{Time: "09:00-10:30", Task: "Email"},
	}})

	item := s.Plan.Schedule[0]
	if item.EstimatedMinutes == nil || *item.EstimatedMinutes != 90 {
		t.Errorf("estimate = %v, want 90", item.EstimatedMinutes)
	}
	if item.Status != models.StatusNotStarted {
		t.Errorf("status = %v", item.Status)
	}
	if s.LLMCalls != 1 {
		t.Errorf("llm calls = %d, want 1", s.LLMCalls)
	}
}
