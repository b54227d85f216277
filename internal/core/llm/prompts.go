package llm

import (
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"

	"dayplan/internal/core/models"
)

const systemPrompt = `You are a pragmatic daily planning assistant. You help one person
turn a stated goal into a realistic schedule for a single day.

Rules:
- Respond with a single JSON object and nothing else.
- Shape: {"state": "questions"|"feedback", "questions": [...], "plan":
  {"schedule": [{"time": "HH:MM-HH:MM", "task": "...",
  "estimated_minutes": N}], "priorities": [...], "notes": "..."}}
- Ask at most {{question_target}} clarifying questions before producing
  a plan. If you have enough context, produce the plan immediately.
- Schedule times use 24-hour HH:MM-HH:MM ranges and must not overlap.
- Respect the user's work hours, blocked times, and recurring tasks.
- Keep at most 5 priorities.`

// Free-text fields use triple braces so quotes in user input survive
// rendering.
const profileContextTemplate = `Today is {{date}}. The user's goal: {{{goal}}}
{{#job_role}}Role: {{{job_role}}}
{{/job_role}}{{#work_hours}}Work hours: {{work_hours}}
{{/work_hours}}{{#wake_time}}Wakes at: {{wake_time}}
{{/wake_time}}{{#peak}}Most productive: {{{peak}}}
{{/peak}}{{#priorities}}Standing priority: {{{.}}}
{{/priorities}}{{#blocked}}Blocked {{start}}-{{end}}: {{{reason}}}
{{/blocked}}{{#recurring}}Recurring: {{{name}}} at {{time}} ({{frequency}})
{{/recurring}}{{#adjustments}}Past adjustment: {{{.}}}
{{/adjustments}}{{#constraints}}Answered "{{{question}}}": {{{answer}}}
{{/constraints}}`

// renderSystemPrompt fills the target question count into the system
// prompt. A fully known user gets target 0 and a plan on the first
// call.
func renderSystemPrompt(questionTarget int) (string, error) {
	out, err := mustache.Render(systemPrompt, map[string]any{
		"question_target": questionTarget,
	})
	if err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return out, nil
}

// renderContext builds the user-context preamble sent ahead of the
// conversation log.
func renderContext(sess *models.Session, profile *models.Profile) (string, error) {
	data := map[string]any{
		"date": sess.Date,
		"goal": sess.Goal,
	}
	// Empty strings are truthy to mustache sections, so blank fields are
	// left out of the data map entirely.
	setIf := func(key, value string) {
		if value != "" {
			data[key] = value
		}
	}
	if profile != nil {
		setIf("job_role", profile.JobRole)
		setIf("wake_time", profile.WakeTime)
		setIf("peak", profile.PeakProductivityTime)
		data["priorities"] = profile.TopPriorities
		if profile.WorkHours.Start != "" {
			data["work_hours"] = profile.WorkHours.Start + "-" + profile.WorkHours.End
		}
		var blocked []map[string]string
		for _, b := range profile.BlockedTimes {
			blocked = append(blocked, map[string]string{
				"start": b.Start, "end": b.End, "reason": b.Reason,
			})
		}
		data["blocked"] = blocked
		var recurring []map[string]string
		for _, r := range profile.RecurringTasks {
			recurring = append(recurring, map[string]string{
				"name": r.Name, "time": r.PreferredTime, "frequency": r.Frequency,
			})
		}
		data["recurring"] = recurring
		data["adjustments"] = profile.History.CommonAdjustments
	}
	var constraints []map[string]string
	for _, c := range sess.Constraints {
		constraints = append(constraints, map[string]string{
			"question": c.Question, "answer": c.Answer,
		})
	}
	data["constraints"] = constraints

	out, err := mustache.Render(profileContextTemplate, data)
	if err != nil {
		return "", fmt.Errorf("rendering context: %w", err)
	}
	return strings.TrimSpace(out), nil
}
