// Package tracking mutates task execution state on a loaded plan:
// check-ins, manual corrections with an audit trail, and derived
// statistics. Execution continues after planning ends, so these
// operations stay valid on done sessions.
package tracking

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"dayplan/internal/core/models"
)

// varianceSanityMinutes flags absurd measured-vs-estimated gaps in
// consistency reports. Advisory only.
const varianceSanityMinutes = 8 * 60

// FindTask resolves a task reference against the schedule. A numeric
// reference is 1-based schedule position; anything else matches task
// names case-insensitively, exact match first, then substring, schedule
// order breaking ties.
func FindTask(plan *models.Plan, ref string) (*models.ScheduleItem, error) {
	if plan == nil || len(plan.Schedule) == 0 {
		return nil, &models.NotFoundError{Kind: "task", Ref: ref}
	}
	ref = strings.TrimSpace(ref)

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(plan.Schedule) {
			return nil, &models.NotFoundError{Kind: "task", Ref: ref}
		}
		return &plan.Schedule[n-1], nil
	}

	for i := range plan.Schedule {
		if plan.Schedule[i].SameTask(ref) {
			return &plan.Schedule[i], nil
		}
	}
	lower := strings.ToLower(ref)
	for i := range plan.Schedule {
		if strings.Contains(strings.ToLower(plan.Schedule[i].Task), lower) {
			return &plan.Schedule[i], nil
		}
	}
	return nil, &models.NotFoundError{Kind: "task", Ref: ref}
}

// StartTask marks a task in progress at the given time. Restarting an
// already-started task at the same instant is a no-op; a different
// start time is recorded as an audit-trail edit, never a silent
// overwrite.
func StartTask(plan *models.Plan, ref string, at time.Time) (*models.ScheduleItem, error) {
	item, err := FindTask(plan, ref)
	if err != nil {
		return nil, err
	}
	if item.ActualStart != nil {
		if item.ActualStart.Equal(at) {
			return item, nil
		}
		recordEdit(item, models.FieldActualStart, at, "restarted")
		item.Status = models.StatusInProgress
		return item, nil
	}
	item.ActualStart = &at
	item.Status = models.StatusInProgress
	return item, nil
}

// CompleteTask marks a task completed at the given time, backfilling the
// start timestamp for tasks that were never explicitly started
// ("instant" tasks are valid).
func CompleteTask(plan *models.Plan, ref string, at time.Time) (*models.ScheduleItem, error) {
	item, err := FindTask(plan, ref)
	if err != nil {
		return nil, err
	}
	if item.ActualStart == nil {
		item.ActualStart = &at
	} else if at.Before(*item.ActualStart) {
		return nil, models.Validationf("completion time %s is before start time %s",
			at.Format(time.RFC3339), item.ActualStart.Format(time.RFC3339))
	}
	item.ActualEnd = &at
	item.Status = models.StatusCompleted
	return item, nil
}

// SkipTask marks a task skipped; no timestamps are required.
func SkipTask(plan *models.Plan, ref, reason string) (*models.ScheduleItem, error) {
	item, err := FindTask(plan, ref)
	if err != nil {
		return nil, err
	}
	item.Status = models.StatusSkipped
	item.SkipReason = reason
	return item, nil
}

// EditTimestamp corrects actual_start or actual_end, appending the old
// and new values to the task's audit trail. An edit that would put the
// end before the start is rejected and the item is left unchanged.
func EditTimestamp(plan *models.Plan, ref, field string, newValue time.Time, reason string) (*models.ScheduleItem, error) {
	item, err := FindTask(plan, ref)
	if err != nil {
		return nil, err
	}
	switch field {
	case models.FieldActualStart:
		if item.ActualEnd != nil && item.ActualEnd.Before(newValue) {
			return nil, models.Validationf("start %s would be after end %s",
				newValue.Format(time.RFC3339), item.ActualEnd.Format(time.RFC3339))
		}
	case models.FieldActualEnd:
		if item.ActualStart != nil && newValue.Before(*item.ActualStart) {
			return nil, models.Validationf("end %s would be before start %s",
				newValue.Format(time.RFC3339), item.ActualStart.Format(time.RFC3339))
		}
	default:
		return nil, models.Validationf("unknown timestamp field %q: must be %s or %s",
			field, models.FieldActualStart, models.FieldActualEnd)
	}
	recordEdit(item, field, newValue, reason)
	return item, nil
}

func recordEdit(item *models.ScheduleItem, field string, newValue time.Time, reason string) {
	var old *time.Time
	switch field {
	case models.FieldActualStart:
		old = item.ActualStart
		item.ActualStart = &newValue
	case models.FieldActualEnd:
		old = item.ActualEnd
		item.ActualEnd = &newValue
	}
	item.Edits = append(item.Edits, models.TimeEdit{
		Field:    field,
		OldValue: old,
		NewValue: newValue,
		EditedAt: time.Now(),
		Reason:   reason,
	})
}

// Stats summarizes execution of a schedule.
type Stats struct {
	Total           int
	Completed       int
	Skipped         int
	NotStarted      int
	InProgress      int
	CompletionRate  float64 // completed / total, 0..1
	EstimatedTotal  int     // minutes
	ActualTotal     int     // minutes
	AvgVariance     float64 // minutes, over VarianceSamples
	VarianceSamples int
}

// GetCompletionStats is a pure computation over the current schedule.
func GetCompletionStats(plan *models.Plan) Stats {
	var stats Stats
	if plan == nil {
		return stats
	}
	stats.Total = len(plan.Schedule)
	varianceSum := 0
	for i := range plan.Schedule {
		item := &plan.Schedule[i]
		switch item.Status {
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusSkipped:
			stats.Skipped++
		case models.StatusInProgress:
			stats.InProgress++
		default:
			stats.NotStarted++
		}
		if v, ok := item.TimeVariance(); ok {
			varianceSum += v
			stats.VarianceSamples++
		}
	}
	stats.CompletionRate = plan.CompletionRate()
	stats.EstimatedTotal = plan.EstimatedTotalMinutes()
	stats.ActualTotal = plan.ActualDurationMinutes()
	if stats.VarianceSamples > 0 {
		stats.AvgVariance = float64(varianceSum) / float64(stats.VarianceSamples)
	}
	return stats
}

// GetCurrentTask returns the item whose display-time window contains
// now, or nil. Items with free-form time strings are skipped.
func GetCurrentTask(plan *models.Plan, now time.Time) *models.ScheduleItem {
	if plan == nil {
		return nil
	}
	minute := now.Hour()*60 + now.Minute()
	for i := range plan.Schedule {
		start, end, ok := models.ParseTimeRange(plan.Schedule[i].Time)
		if !ok {
			continue
		}
		if start <= minute && minute < end {
			return &plan.Schedule[i]
		}
	}
	return nil
}

// GetNextTask returns the earliest not-started item whose window starts
// at or after now; with no parseable candidate it falls back to the
// first not-started item in schedule order.
func GetNextTask(plan *models.Plan, now time.Time) *models.ScheduleItem {
	if plan == nil {
		return nil
	}
	minute := now.Hour()*60 + now.Minute()

	var best *models.ScheduleItem
	bestStart := 0
	for i := range plan.Schedule {
		item := &plan.Schedule[i]
		if item.Status != models.StatusNotStarted {
			continue
		}
		start, _, ok := models.ParseTimeRange(item.Time)
		if !ok || start < minute {
			continue
		}
		if best == nil || start < bestStart {
			best = item
			bestStart = start
		}
	}
	if best != nil {
		return best
	}
	for i := range plan.Schedule {
		if plan.Schedule[i].Status == models.StatusNotStarted {
			return &plan.Schedule[i]
		}
	}
	return nil
}

// CarryOverTasks returns copies of a plan's unfinished tasks
// (not_started or in_progress, plus skipped when includeSkipped is
// set), reset for a new day: fresh status, no timestamps, no audit
// trail. Task names, time strings, and estimates are preserved.
func CarryOverTasks(plan *models.Plan, includeSkipped bool) []models.ScheduleItem {
	if plan == nil {
		return nil
	}
	var out []models.ScheduleItem
	for _, item := range plan.Schedule {
		switch item.Status {
		case models.StatusNotStarted, models.StatusInProgress:
		case models.StatusSkipped:
			if !includeSkipped {
				continue
			}
		default:
			continue
		}
		var est *int
		if item.EstimatedMinutes != nil {
			v := *item.EstimatedMinutes
			est = &v
		}
		out = append(out, models.ScheduleItem{
			Time:             item.Time,
			Task:             item.Task,
			EstimatedMinutes: est,
			Status:           models.StatusNotStarted,
		})
	}
	return out
}

// Issue is one advisory consistency finding. Issues never block saves.
type Issue struct {
	Task    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Task, i.Message)
}

// ValidateConsistency reports anomalies in tracking data: completed
// items without an end, in-progress items with one, inverted
// timestamps, and variance beyond the sanity threshold.
func ValidateConsistency(plan *models.Plan) []Issue {
	if plan == nil {
		return nil
	}
	var issues []Issue
	for i := range plan.Schedule {
		item := &plan.Schedule[i]
		if item.ActualStart != nil && item.ActualEnd != nil && item.ActualEnd.Before(*item.ActualStart) {
			issues = append(issues, Issue{item.Task, "end time is before start time"})
		}
		if item.Status == models.StatusCompleted && item.ActualEnd == nil {
			issues = append(issues, Issue{item.Task, "marked completed but has no end time"})
		}
		if item.Status == models.StatusInProgress && item.ActualEnd != nil {
			issues = append(issues, Issue{item.Task, "in progress but has an end time"})
		}
		if v, ok := item.TimeVariance(); ok && (v > varianceSanityMinutes || v < -varianceSanityMinutes) {
			issues = append(issues, Issue{item.Task, fmt.Sprintf("variance of %d minutes looks implausible", v)})
		}
	}
	if len(issues) > 0 {
		slog.Debug("tracking consistency issues found", "count", len(issues))
	}
	return issues
}
