package tracking

import (
	"errors"
	"testing"
	"time"

	"dayplan/internal/core/models"
)

func testPlan() *models.Plan {
	est := 60
	return &models.Plan{Schedule: []models.ScheduleItem{
		{Time: "09:00-10:00", Task: "Email triage", EstimatedMinutes: &est, Status: models.StatusNotStarted},
		{Time: "10:00-12:00", Task: "Deep work", Status: models.StatusNotStarted},
		{Time: "13:00-14:00", Task: "Design review", Status: models.StatusNotStarted},
	}}
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 14, h, m, 0, 0, time.UTC)
}

func TestFindTask(t *testing.T) {
	plan := testPlan()

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"Email triage", "Email triage", false},
		{"EMAIL TRIAGE", "Email triage", false},
		{"deep", "Deep work", false},
		{"e", "Email triage", false}, // substring ties break by schedule order
		{"2", "Deep work", false},
		{"99", "", true},
		{"standup", "", true},
	}
	for _, tt := range tests {
		item, err := FindTask(plan, tt.ref)
		if tt.wantErr {
			var nf *models.NotFoundError
			if !errors.As(err, &nf) {
				t.Errorf("FindTask(%q) error = %v, want NotFoundError", tt.ref, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("FindTask(%q) error = %v", tt.ref, err)
			continue
		}
		if item.Task != tt.want {
			t.Errorf("FindTask(%q) = %q, want %q", tt.ref, item.Task, tt.want)
		}
	}
}

func TestStartTaskIdempotent(t *testing.T) {
	plan := testPlan()
	start := at(9, 5)

	item, err := StartTask(plan, "Email triage", start)
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != models.StatusInProgress || !item.ActualStart.Equal(start) {
		t.Fatalf("item = %+v", item)
	}

	// Same instant: nothing new recorded.
	if _, err := StartTask(plan, "Email triage", start); err != nil {
		t.Fatal(err)
	}
	if len(item.Edits) != 0 {
		t.Errorf("idempotent restart produced %d edits", len(item.Edits))
	}

	// Different instant: recorded as an edit.
	if _, err := StartTask(plan, "Email triage", at(9, 15)); err != nil {
		t.Fatal(err)
	}
	if len(item.Edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(item.Edits))
	}
	if item.Edits[0].OldValue == nil || !item.Edits[0].OldValue.Equal(start) {
		t.Errorf("edit old value = %v", item.Edits[0].OldValue)
	}
	if !item.ActualStart.Equal(at(9, 15)) {
		t.Errorf("actual start = %v", item.ActualStart)
	}
}

func TestCompleteNeverStartedTask(t *testing.T) {
	plan := testPlan()
	done := at(11, 30)

	item, err := CompleteTask(plan, "Deep work", done)
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != models.StatusCompleted {
		t.Errorf("status = %v", item.Status)
	}
	if item.ActualStart == nil || item.ActualEnd == nil {
		t.Fatal("both timestamps must be set")
	}
	if !item.ActualStart.Equal(done) || !item.ActualEnd.Equal(done) {
		t.Errorf("start=%v end=%v, want both %v", item.ActualStart, item.ActualEnd, done)
	}
}

func TestCompleteBeforeStartRejected(t *testing.T) {
	plan := testPlan()
	if _, err := StartTask(plan, "Deep work", at(10, 0)); err != nil {
		t.Fatal(err)
	}
	_, err := CompleteTask(plan, "Deep work", at(9, 0))
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestSkipTask(t *testing.T) {
	plan := testPlan()
	item, err := SkipTask(plan, "Design review", "moved to Friday")
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != models.StatusSkipped || item.SkipReason != "moved to Friday" {
		t.Errorf("item = %+v", item)
	}
	if item.ActualStart != nil || item.ActualEnd != nil {
		t.Error("skip must not invent timestamps")
	}
}

func TestEditTimestamp(t *testing.T) {
	plan := testPlan()
	if _, err := StartTask(plan, "Email triage", at(9, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := CompleteTask(plan, "Email triage", at(10, 0)); err != nil {
		t.Fatal(err)
	}

	item, err := EditTimestamp(plan, "Email triage", models.FieldActualEnd, at(9, 45), "forgot to check out")
	if err != nil {
		t.Fatal(err)
	}
	if !item.ActualEnd.Equal(at(9, 45)) {
		t.Errorf("actual end = %v", item.ActualEnd)
	}
	if len(item.Edits) != 1 || item.Edits[0].Reason != "forgot to check out" {
		t.Errorf("edits = %+v", item.Edits)
	}

	// Would invert the interval: rejected, item untouched.
	_, err = EditTimestamp(plan, "Email triage", models.FieldActualEnd, at(8, 0), "")
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !item.ActualEnd.Equal(at(9, 45)) || len(item.Edits) != 1 {
		t.Error("rejected edit must leave the item unchanged")
	}

	// Unknown field name.
	if _, err := EditTimestamp(plan, "Email triage", "finished_at", at(9, 0), ""); err == nil {
		t.Error("unknown field should be rejected")
	}
}

func TestGetCompletionStats(t *testing.T) {
	plan := testPlan()
	plan.Schedule = append(plan.Schedule, models.ScheduleItem{
		Time: "14:00-15:00", Task: "Retro", Status: models.StatusNotStarted,
	})

	if _, err := StartTask(plan, "Email triage", at(9, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := CompleteTask(plan, "Email triage", at(10, 15)); err != nil {
		t.Fatal(err)
	}
	if _, err := SkipTask(plan, "Design review", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := StartTask(plan, "Deep work", at(10, 15)); err != nil {
		t.Fatal(err)
	}

	stats := GetCompletionStats(plan)
	if stats.Total != 4 || stats.Completed != 1 || stats.Skipped != 1 ||
		stats.InProgress != 1 || stats.NotStarted != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.CompletionRate != 0.25 {
		t.Errorf("completion rate = %v, want 0.25", stats.CompletionRate)
	}
	if stats.ActualTotal != 75 {
		t.Errorf("actual total = %d, want 75", stats.ActualTotal)
	}
	// One estimated (60) vs one measured (75) on the same item.
	if stats.VarianceSamples != 1 || stats.AvgVariance != 15 {
		t.Errorf("variance = %+v", stats)
	}
}

func TestCurrentAndNextTask(t *testing.T) {
	plan := testPlan()

	current := GetCurrentTask(plan, at(10, 30))
	if current == nil || current.Task != "Deep work" {
		t.Errorf("current = %+v", current)
	}
	if GetCurrentTask(plan, at(12, 30)) != nil {
		t.Error("no window contains 12:30")
	}

	next := GetNextTask(plan, at(12, 30))
	if next == nil || next.Task != "Design review" {
		t.Errorf("next = %+v", next)
	}

	// All windows past: fall back to the first not-started item.
	late := GetNextTask(plan, at(18, 0))
	if late == nil || late.Task != "Email triage" {
		t.Errorf("late next = %+v", late)
	}
}

func TestCarryOverTasks(t *testing.T) {
	plan := testPlan()
	if _, err := StartTask(plan, "Email triage", at(9, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := CompleteTask(plan, "Email triage", at(10, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := StartTask(plan, "Deep work", at(10, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := SkipTask(plan, "Design review", "moved"); err != nil {
		t.Fatal(err)
	}

	carried := CarryOverTasks(plan, false)
	if len(carried) != 1 || carried[0].Task != "Deep work" {
		t.Fatalf("carried = %+v", carried)
	}
	if carried[0].Status != models.StatusNotStarted || carried[0].ActualStart != nil {
		t.Errorf("execution state must be reset: %+v", carried[0])
	}

	withSkipped := CarryOverTasks(plan, true)
	if len(withSkipped) != 2 {
		t.Fatalf("withSkipped = %+v", withSkipped)
	}
	if withSkipped[1].SkipReason != "" {
		t.Errorf("skip reason must not carry over: %+v", withSkipped[1])
	}

	// Copies are independent of the source plan.
	src := testPlan()
	copied := CarryOverTasks(src, false)
	*copied[0].EstimatedMinutes = 999
	if *src.Schedule[0].EstimatedMinutes == 999 {
		t.Error("estimate aliased with the source plan")
	}

	if got := CarryOverTasks(nil, true); got != nil {
		t.Errorf("nil plan carried %+v", got)
	}
}

func TestValidateConsistency(t *testing.T) {
	plan := testPlan()
	end := at(11, 0)
	plan.Schedule[0].Status = models.StatusCompleted // no actual_end
	plan.Schedule[1].Status = models.StatusInProgress
	plan.Schedule[1].ActualEnd = &end

	issues := ValidateConsistency(plan)
	if len(issues) != 2 {
		t.Fatalf("issues = %v", issues)
	}
}
