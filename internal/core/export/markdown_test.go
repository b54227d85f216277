package export

import (
	"strings"
	"testing"
	"time"

	"dayplan/internal/core/models"
)

func TestMarkdownFullSession(t *testing.T) {
	est := 60
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	end := start.Add(75 * time.Minute)

	sess := models.NewSession("2026-03-14")
	sess.SetGoal("Ship the release")
	sess.State = models.StateDone
	sess.Plan = &models.Plan{
		Schedule: []models.ScheduleItem{
			{Time: "09:00-10:00", Task: "Email triage", EstimatedMinutes: &est,
				Status: models.StatusCompleted, ActualStart: &start, ActualEnd: &end},
			{Time: "10:00-12:00", Task: "Deep work", Status: models.StatusSkipped, SkipReason: "fire drill"},
		},
		Priorities: []string{"Ship the release"},
		Notes:      "Short day.",
	}

	out, err := Markdown(sess)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# Day Plan: 2026-03-14",
		"**Goal:** Ship the release",
		"| 09:00-10:00 | Email triage | 1h | 1h15m | completed |",
		"| 10:00-12:00 | Deep work | n/a | n/a | skipped (fire drill) |",
		"- Ship the release",
		"Short day.",
		"Completed 1 of 2 tasks (50%)",
		"Average variance 15m per task",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMarkdownNoPlan(t *testing.T) {
	sess := models.NewSession("2026-03-14")

	out, err := Markdown(sess)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "**Goal:** -") {
		t.Errorf("missing goal placeholder:\n%s", out)
	}
	if strings.Contains(out, "## Summary") {
		t.Errorf("summary rendered without a plan:\n%s", out)
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		mins int
		want string
	}{
		{45, "45m"}, {60, "1h"}, {75, "1h15m"}, {0, "0m"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.mins); got != tt.want {
			t.Errorf("formatMinutes(%d) = %q, want %q", tt.mins, got, tt.want)
		}
	}
}
