package models

import (
	"strings"
	"time"
)

// TaskStatus tracks execution of a single schedule item.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not_started"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusSkipped    TaskStatus = "skipped"
)

// Timestamp fields that can be corrected manually.
const (
	FieldActualStart = "actual_start"
	FieldActualEnd   = "actual_end"
)

// TimeEdit is one entry in a task's audit trail. Edits are appended,
// never rewritten.
type TimeEdit struct {
	Field    string     `json:"field"`
	OldValue *time.Time `json:"old_value,omitempty"`
	NewValue time.Time  `json:"new_value"`
	EditedAt time.Time  `json:"edited_at"`
	Reason   string     `json:"reason,omitempty"`
}

// ScheduleItem is one task or time block in a plan.
type ScheduleItem struct {
	Time             string     `json:"time"` // display string, e.g. "09:00-10:30"
	Task             string     `json:"task"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	Status           TaskStatus `json:"status"`
	ActualStart      *time.Time `json:"actual_start,omitempty"`
	ActualEnd        *time.Time `json:"actual_end,omitempty"`
	SkipReason       string     `json:"skip_reason,omitempty"`
	Edits            []TimeEdit `json:"edits,omitempty"`
}

// ActualMinutes returns the measured duration. The second return is
// false until both timestamps are recorded.
func (i *ScheduleItem) ActualMinutes() (int, bool) {
	if i.ActualStart == nil || i.ActualEnd == nil {
		return 0, false
	}
	return int(i.ActualEnd.Sub(*i.ActualStart) / time.Minute), true
}

// TimeVariance returns actual minus estimated minutes. Undefined (false)
// when either side is missing; callers must not substitute zero.
func (i *ScheduleItem) TimeVariance() (int, bool) {
	actual, ok := i.ActualMinutes()
	if !ok || i.EstimatedMinutes == nil {
		return 0, false
	}
	return actual - *i.EstimatedMinutes, true
}

// SameTask reports whether the item refers to the same task as name,
// using exact case-insensitive comparison.
func (i *ScheduleItem) SameTask(name string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Task), strings.TrimSpace(name))
}

// ParseTimeRange parses a "HH:MM-HH:MM" display string into minutes
// since midnight. ok is false for any other shape; the time string is
// presentational and may be free-form.
func ParseTimeRange(s string) (startMin, endMin int, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	startMin, ok = parseClock(strings.TrimSpace(parts[0]))
	if !ok {
		return 0, 0, false
	}
	endMin, ok = parseClock(strings.TrimSpace(parts[1]))
	if !ok {
		return 0, 0, false
	}
	return startMin, endMin, true
}

func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// Plan is one proposed schedule for a day.
type Plan struct {
	Schedule   []ScheduleItem `json:"schedule"`
	Priorities []string       `json:"priorities"`
	Notes      string         `json:"notes,omitempty"`
}

// CompletionRate is completed items over total items, in 0..1.
// Recomputed on demand; never stored.
func (p *Plan) CompletionRate() float64 {
	if p == nil || len(p.Schedule) == 0 {
		return 0
	}
	completed := 0
	for _, item := range p.Schedule {
		if item.Status == StatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(p.Schedule))
}

// ActualDurationMinutes sums measured durations over items with both
// timestamps recorded.
func (p *Plan) ActualDurationMinutes() int {
	total := 0
	for idx := range p.Schedule {
		if m, ok := p.Schedule[idx].ActualMinutes(); ok {
			total += m
		}
	}
	return total
}

// EstimatedTotalMinutes sums the estimates that are present.
func (p *Plan) EstimatedTotalMinutes() int {
	total := 0
	for _, item := range p.Schedule {
		if item.EstimatedMinutes != nil {
			total += *item.EstimatedMinutes
		}
	}
	return total
}

// BackfillEstimates fills missing estimates from parseable time strings.
func (p *Plan) BackfillEstimates() {
	for idx := range p.Schedule {
		item := &p.Schedule[idx]
		if item.EstimatedMinutes != nil {
			continue
		}
		if start, end, ok := ParseTimeRange(item.Time); ok && end > start {
			minutes := end - start
			item.EstimatedMinutes = &minutes
		}
	}
}
