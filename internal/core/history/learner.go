// Package history folds completed sessions into the longitudinal
// profile and scores how much is already known about the user. It reads
// terminal sessions; it never mutates them.
package history

import (
	"fmt"
	"log/slog"
	"strings"

	"dayplan/internal/core/models"
	"dayplan/internal/core/tracking"
)

// adjustmentMaxLen bounds the phrase length kept from revision
// feedback.
const adjustmentMaxLen = 80

// FoldSession merges one completed session into the profile. A session
// is folded at most once: last_session_date advances strictly, so
// replaying the same date is a no-op. Returns true when the profile
// changed.
func FoldSession(profile *models.Profile, sess *models.Session) bool {
	if sess.State != models.StateDone {
		return false
	}
	if sess.Date <= profile.History.LastSessionDate {
		slog.Debug("session already folded", "date", sess.Date,
			"last_session_date", profile.History.LastSessionDate)
		return false
	}

	hist := &profile.History
	stats := tracking.GetCompletionStats(sess.Plan)

	if sess.Revisions == 0 && sess.Plan != nil {
		hist.SuccessfulPatterns = models.AppendCapped(hist.SuccessfulPatterns,
			fmt.Sprintf("%s: first plan accepted (%d tasks, goal: %s)",
				sess.Date, len(sess.Plan.Schedule), sess.Goal))
	}
	for _, note := range sess.RevisionNotes {
		hist.CommonAdjustments = models.AppendCapped(hist.CommonAdjustments, shorten(note))
	}
	if stats.Skipped > stats.Completed && stats.Total > 0 {
		hist.AvoidedPatterns = models.AppendCapped(hist.AvoidedPatterns,
			fmt.Sprintf("%s: %d of %d tasks skipped (goal: %s)",
				sess.Date, stats.Skipped, stats.Total, sess.Goal))
	}

	hist.SessionsCompleted++
	hist.LastSessionDate = sess.Date
	return true
}

// shorten collapses feedback to a single short phrase.
func shorten(note string) string {
	note = strings.Join(strings.Fields(note), " ")
	if idx := strings.IndexAny(note, ".!\n"); idx > 0 {
		note = note[:idx]
	}
	if len(note) > adjustmentMaxLen {
		note = strings.TrimSpace(note[:adjustmentMaxLen]) + "..."
	}
	return note
}

// ScoreCompleteness rates how much the profile already tells us, 0-10.
// Pure function of the profile; recomputed every call.
//
//	top priorities        2
//	long-term goals       2
//	job role              1
//	meeting pattern       1
//	wake time             1
//	blocked times         1
//	peak productivity     1
//	any completed session 1
func ScoreCompleteness(profile *models.Profile) int {
	score := 0
	if len(profile.TopPriorities) > 0 {
		score += 2
	}
	if len(profile.LongTermGoals) > 0 {
		score += 2
	}
	if profile.JobRole != "" {
		score++
	}
	if len(profile.MeetingHeavyDays) > 0 {
		score++
	}
	if profile.WakeTime != "" {
		score++
	}
	if len(profile.BlockedTimes) > 0 {
		score++
	}
	if profile.PeakProductivityTime != "" {
		score++
	}
	if profile.History.SessionsCompleted > 0 {
		score++
	}
	return score
}

// QuestionTarget maps a completeness score to the number of clarifying
// answers a planning session should collect before generating a plan.
// A well-known user gets a plan immediately.
func QuestionTarget(score int) int {
	switch {
	case score <= 2:
		return 4
	case score <= 5:
		return 2
	default:
		return 0
	}
}
