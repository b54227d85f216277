package models

import "time"

// WorkHours is the user's typical working window.
type WorkHours struct {
	Start string   `json:"start"` // HH:MM
	End   string   `json:"end"`   // HH:MM
	Days  []string `json:"days,omitempty"`
}

// BlockedTime is a window unavailable for planning.
type BlockedTime struct {
	Start  string `json:"start"` // HH:MM
	End    string `json:"end"`   // HH:MM
	Reason string `json:"reason,omitempty"`
}

// RecurringTask repeats on a regular cadence and is surfaced to the
// plan generator as context.
type RecurringTask struct {
	Name            string `json:"name"`
	Frequency       string `json:"frequency"` // daily, weekly, ...
	DurationMinutes int    `json:"duration_minutes"`
	PreferredTime   string `json:"preferred_time,omitempty"` // HH:MM
}

// PatternCap bounds each learned-pattern list. Oldest entries are
// evicted first.
const PatternCap = 20

// PlanningHistory is the longitudinal record the history learner
// maintains. Lists are append-and-cap only; entries are never edited
// in place.
type PlanningHistory struct {
	SuccessfulPatterns []string `json:"successful_patterns,omitempty"`
	AvoidedPatterns    []string `json:"avoided_patterns,omitempty"`
	CommonAdjustments  []string `json:"common_adjustments,omitempty"`
	SessionsCompleted  int      `json:"sessions_completed"`
	LastSessionDate    string   `json:"last_session_date,omitempty"` // YYYY-MM-DD
}

// Profile is the cross-session user preference document, stored
// separately from any session.
type Profile struct {
	UserID               string          `json:"user_id"`
	Timezone             string          `json:"timezone,omitempty"`
	WorkHours            WorkHours       `json:"work_hours"`
	TopPriorities        []string        `json:"top_priorities,omitempty"`
	LongTermGoals        []string        `json:"long_term_goals,omitempty"`
	JobRole              string          `json:"job_role,omitempty"`
	MeetingHeavyDays     []string        `json:"meeting_heavy_days,omitempty"`
	WakeTime             string          `json:"wake_time,omitempty"` // HH:MM
	BlockedTimes         []BlockedTime   `json:"blocked_times,omitempty"`
	PeakProductivityTime string          `json:"peak_productivity_time,omitempty"` // morning/afternoon/evening
	RecurringTasks       []RecurringTask `json:"recurring_tasks,omitempty"`
	History              PlanningHistory `json:"planning_history"`
	CreatedAt            time.Time       `json:"created_at"`
	LastUpdated          time.Time       `json:"last_updated"`
}

// NewProfile creates a profile with sensible defaults.
func NewProfile(userID string) *Profile {
	now := time.Now()
	return &Profile{
		UserID:   userID,
		Timezone: "UTC",
		WorkHours: WorkHours{
			Start: "09:00",
			End:   "17:00",
			Days:  []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		},
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// AppendCapped appends entry and evicts the oldest entries beyond
// PatternCap.
func AppendCapped(list []string, entry string) []string {
	list = append(list, entry)
	if len(list) > PatternCap {
		list = list[len(list)-PatternCap:]
	}
	return list
}
