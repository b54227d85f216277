package history

import (
	"strings"
	"testing"

	"dayplan/internal/core/models"
)

func doneSession(date string) *models.Session {
	s := models.NewSession(date)
	s.SetGoal("Ship the release")
	s.State = models.StateDone
	s.Plan = &models.Plan{Schedule: []models.ScheduleItem{
		{Time: "09:00-10:00", Task: "Email", Status: models.StatusCompleted},
		{Time: "10:00-12:00", Task: "Deep work", Status: models.StatusCompleted},
	}}
	return s
}

func TestFoldSessionFirstPlanAccepted(t *testing.T) {
	profile := models.NewProfile("default")
	sess := doneSession("2026-03-14")

	if !FoldSession(profile, sess) {
		t.Fatal("expected fold")
	}
	if profile.History.SessionsCompleted != 1 {
		t.Errorf("sessions completed = %d", profile.History.SessionsCompleted)
	}
	if profile.History.LastSessionDate != "2026-03-14" {
		t.Errorf("last session date = %q", profile.History.LastSessionDate)
	}
	if len(profile.History.SuccessfulPatterns) != 1 {
		t.Fatalf("successful patterns = %v", profile.History.SuccessfulPatterns)
	}
	if len(profile.History.CommonAdjustments) != 0 {
		t.Errorf("adjustments = %v", profile.History.CommonAdjustments)
	}
}

func TestFoldSessionIdempotentPerDate(t *testing.T) {
	profile := models.NewProfile("default")
	sess := doneSession("2026-03-14")

	FoldSession(profile, sess)
	if FoldSession(profile, sess) {
		t.Error("same date must not fold twice")
	}
	if profile.History.SessionsCompleted != 1 {
		t.Errorf("sessions completed = %d, want 1", profile.History.SessionsCompleted)
	}

	// An older session arriving late is also rejected.
	if FoldSession(profile, doneSession("2026-03-10")) {
		t.Error("older date must not fold")
	}
}

func TestFoldSessionRecordsAdjustments(t *testing.T) {
	profile := models.NewProfile("default")
	sess := doneSession("2026-03-14")
	sess.Revisions = 2
	sess.RevisionNotes = []string{
		"add a lunch break. I always forget to eat when heads-down",
		strings.Repeat("move everything after the standup much later ", 5),
	}

	FoldSession(profile, sess)
	adj := profile.History.CommonAdjustments
	if len(adj) != 2 {
		t.Fatalf("adjustments = %v", adj)
	}
	if adj[0] != "add a lunch break" {
		t.Errorf("adjustment[0] = %q", adj[0])
	}
	if len(adj[1]) > adjustmentMaxLen+3 {
		t.Errorf("adjustment[1] not truncated: %d chars", len(adj[1]))
	}
	// Revised sessions are not recorded as successful patterns.
	if len(profile.History.SuccessfulPatterns) != 0 {
		t.Errorf("successful patterns = %v", profile.History.SuccessfulPatterns)
	}
}

func TestFoldSessionAvoidedPattern(t *testing.T) {
	profile := models.NewProfile("default")
	sess := doneSession("2026-03-14")
	sess.Plan.Schedule[0].Status = models.StatusSkipped
	sess.Plan.Schedule[1].Status = models.StatusSkipped

	FoldSession(profile, sess)
	if len(profile.History.AvoidedPatterns) != 1 {
		t.Fatalf("avoided patterns = %v", profile.History.AvoidedPatterns)
	}
}

func TestFoldSessionIgnoresUnfinished(t *testing.T) {
	profile := models.NewProfile("default")
	sess := doneSession("2026-03-14")
	sess.State = models.StateFeedback

	if FoldSession(profile, sess) {
		t.Error("non-terminal session must not fold")
	}
}

func TestScoreCompleteness(t *testing.T) {
	profile := models.NewProfile("default")
	if got := ScoreCompleteness(profile); got != 0 {
		t.Errorf("empty profile score = %d, want 0", got)
	}

	profile.TopPriorities = []string{"Ship v2"}
	profile.LongTermGoals = []string{"Learn Go"}
	profile.JobRole = "engineer"
	profile.MeetingHeavyDays = []string{"Tuesday"}
	profile.WakeTime = "06:30"
	profile.BlockedTimes = []models.BlockedTime{{Start: "12:00", End: "13:00", Reason: "lunch"}}
	profile.PeakProductivityTime = "morning"
	profile.History.SessionsCompleted = 5

	if got := ScoreCompleteness(profile); got != 10 {
		t.Errorf("full profile score = %d, want 10", got)
	}
}

func TestQuestionTarget(t *testing.T) {
	tests := []struct {
		score, want int
	}{
		{0, 4}, {2, 4}, {3, 2}, {5, 2}, {6, 0}, {10, 0},
	}
	for _, tt := range tests {
		if got := QuestionTarget(tt.score); got != tt.want {
			t.Errorf("QuestionTarget(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}
