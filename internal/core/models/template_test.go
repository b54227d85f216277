package models

import (
	"errors"
	"testing"
	"time"
)

func trackedPlan() *Plan {
	est := 60
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	end := start.Add(75 * time.Minute)
	return &Plan{
		Schedule: []ScheduleItem{
			{Time: "09:00-10:00", Task: "Email", EstimatedMinutes: &est,
				Status: StatusCompleted, ActualStart: &start, ActualEnd: &end,
				Edits: []TimeEdit{{Field: FieldActualEnd, NewValue: end}}},
			{Time: "10:00-12:00", Task: "Deep work", Status: StatusSkipped, SkipReason: "meetings"},
		},
		Priorities: []string{"Ship"},
		Notes:      "Heads-down day.",
	}
}

func TestNewDayTemplateStripsExecutionState(t *testing.T) {
	tpl := NewDayTemplate("work-day", "typical office day", trackedPlan())

	if err := tpl.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(tpl.Schedule) != 2 {
		t.Fatalf("schedule = %+v", tpl.Schedule)
	}
	for _, item := range tpl.Schedule {
		if item.Status != StatusNotStarted || item.ActualStart != nil ||
			item.ActualEnd != nil || item.SkipReason != "" || len(item.Edits) != 0 {
			t.Errorf("execution state leaked into template: %+v", item)
		}
	}
	if tpl.Schedule[0].EstimatedMinutes == nil || *tpl.Schedule[0].EstimatedMinutes != 60 {
		t.Errorf("estimate should carry over: %+v", tpl.Schedule[0])
	}
}

func TestNewDayPlanIsIndependent(t *testing.T) {
	tpl := NewDayTemplate("work-day", "", trackedPlan())

	plan := tpl.NewDayPlan()
	plan.Schedule[0].Status = StatusCompleted
	*plan.Schedule[0].EstimatedMinutes = 999
	plan.Priorities[0] = "changed"

	if tpl.Schedule[0].Status != StatusNotStarted {
		t.Error("mutating an applied plan must not touch the template")
	}
	if *tpl.Schedule[0].EstimatedMinutes != 60 {
		t.Error("estimate aliased between template and plan")
	}
	if tpl.Priorities[0] != "Ship" {
		t.Error("priorities aliased between template and plan")
	}
}

func TestDayTemplateValidate(t *testing.T) {
	good := trackedPlan()
	tests := []struct {
		name string
		tpl  *DayTemplate
	}{
		{"bad name", NewDayTemplate("Work Day!", "", good)},
		{"path traversal", NewDayTemplate("../escape", "", good)},
		{"empty schedule", &DayTemplate{Name: "empty"}},
	}
	for _, tt := range tests {
		var ve *ValidationError
		if err := tt.tpl.Validate(); !errors.As(err, &ve) {
			t.Errorf("%s: error = %v, want ValidationError", tt.name, err)
		}
	}
}

func TestRecordUse(t *testing.T) {
	tpl := NewDayTemplate("work-day", "", trackedPlan())
	if tpl.UseCount != 0 || tpl.LastUsed != nil {
		t.Fatalf("fresh template = %+v", tpl)
	}
	tpl.RecordUse()
	tpl.RecordUse()
	if tpl.UseCount != 2 || tpl.LastUsed == nil {
		t.Errorf("after two uses: count=%d last_used=%v", tpl.UseCount, tpl.LastUsed)
	}
}
