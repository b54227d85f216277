package models

import (
	"regexp"
	"time"
)

// templateNamePattern keeps template names usable as file names.
var templateNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// DayTemplate is a reusable plan shape ("work-day", "weekend") saved
// from a finished session and applied to new dates without a planning
// conversation.
type DayTemplate struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Schedule    []ScheduleItem `json:"schedule"`
	Priorities  []string       `json:"priorities,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	LastUsed    *time.Time     `json:"last_used,omitempty"`
	UseCount    int            `json:"use_count"`
}

// NewDayTemplate captures a plan as a template. Execution state is not
// copied; a template holds only the shape of the day.
func NewDayTemplate(name, description string, plan *Plan) *DayTemplate {
	tpl := &DayTemplate{
		Name:        name,
		Description: description,
		Priorities:  append([]string(nil), plan.Priorities...),
		Notes:       plan.Notes,
		CreatedAt:   time.Now(),
	}
	for _, item := range plan.Schedule {
		tpl.Schedule = append(tpl.Schedule, resetItem(item))
	}
	return tpl
}

// Validate checks the template is usable.
func (t *DayTemplate) Validate() error {
	if !templateNamePattern.MatchString(t.Name) {
		return Validationf("invalid template name %q: use lowercase letters, digits, - and _", t.Name)
	}
	if len(t.Schedule) == 0 {
		return Validationf("template %q has no schedule", t.Name)
	}
	return nil
}

// NewDayPlan instantiates the template for a fresh day. Every item
// starts not_started with no timestamps or audit trail.
func (t *DayTemplate) NewDayPlan() *Plan {
	plan := &Plan{
		Priorities: append([]string(nil), t.Priorities...),
		Notes:      t.Notes,
	}
	for _, item := range t.Schedule {
		plan.Schedule = append(plan.Schedule, resetItem(item))
	}
	return plan
}

// RecordUse bumps the usage counters after a successful apply.
func (t *DayTemplate) RecordUse() {
	now := time.Now()
	t.LastUsed = &now
	t.UseCount++
}

// resetItem copies an item with all execution state cleared. The
// estimate travels with the task; actuals do not.
func resetItem(item ScheduleItem) ScheduleItem {
	var est *int
	if item.EstimatedMinutes != nil {
		v := *item.EstimatedMinutes
		est = &v
	}
	return ScheduleItem{
		Time:             item.Time,
		Task:             item.Task,
		EstimatedMinutes: est,
		Status:           StatusNotStarted,
	}
}
