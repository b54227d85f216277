// Package export renders a session to a shareable Markdown document.
package export

import (
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"

	"dayplan/internal/core/models"
	"dayplan/internal/core/tracking"
)

// Free-text cells use triple braces; mustache would otherwise
// HTML-escape quotes and ampersands in task names.
const markdownTemplate = `# Day Plan: {{date}}

**Goal:** {{{goal}}}
**Status:** {{state}}
{{#has_schedule}}
## Schedule

| Time | Task | Est | Actual | Status |
|------|------|-----|--------|--------|
{{#rows}}| {{time}} | {{{task}}} | {{estimated}} | {{actual}} | {{{status}}} |
{{/rows}}{{/has_schedule}}
{{#has_priorities}}
## Priorities

{{#priorities}}- {{{.}}}
{{/priorities}}{{/has_priorities}}{{#notes}}
## Notes

{{{notes}}}
{{/notes}}{{#has_stats}}
## Summary

- Completed {{completed}} of {{total}} tasks ({{rate}})
- Estimated {{estimated_total}}, spent {{actual_total}}
{{#has_variance}}- Average variance {{variance}} per task
{{/has_variance}}{{/has_stats}}`

// Markdown renders the session as a Markdown document. Sessions without
// a plan render the header and conversation state only.
func Markdown(sess *models.Session) (string, error) {
	data := map[string]any{
		"date":  sess.Date,
		"goal":  orDash(sess.Goal),
		"state": string(sess.State),
	}

	var rows []map[string]string
	if sess.Plan != nil {
		for i := range sess.Plan.Schedule {
			item := &sess.Plan.Schedule[i]
			rows = append(rows, map[string]string{
				"time":      orDash(item.Time),
				"task":      item.Task,
				"estimated": minutesOrNA(item.EstimatedMinutes),
				"actual":    actualCell(item),
				"status":    statusCell(item),
			})
		}
		data["has_priorities"] = len(sess.Plan.Priorities) > 0
		data["priorities"] = sess.Plan.Priorities
		// Omitted when blank: an empty string is truthy to a mustache
		// section and would render the heading.
		if notes := strings.TrimSpace(sess.Plan.Notes); notes != "" {
			data["notes"] = notes
		}

		stats := tracking.GetCompletionStats(sess.Plan)
		data["has_stats"] = stats.Total > 0
		data["completed"] = stats.Completed
		data["total"] = stats.Total
		data["rate"] = fmt.Sprintf("%.0f%%", stats.CompletionRate*100)
		data["estimated_total"] = formatMinutes(stats.EstimatedTotal)
		data["actual_total"] = formatMinutes(stats.ActualTotal)
		data["has_variance"] = stats.VarianceSamples > 0
		data["variance"] = formatMinutes(abs(int(stats.AvgVariance)))
	}
	data["rows"] = rows
	data["has_schedule"] = len(rows) > 0

	out, err := mustache.Render(markdownTemplate, data)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}

func actualCell(item *models.ScheduleItem) string {
	if mins, ok := item.ActualMinutes(); ok {
		return formatMinutes(mins)
	}
	return "n/a"
}

func statusCell(item *models.ScheduleItem) string {
	if item.Status == models.StatusSkipped && item.SkipReason != "" {
		return fmt.Sprintf("skipped (%s)", item.SkipReason)
	}
	return strings.ReplaceAll(string(item.Status), "_", " ")
}

func minutesOrNA(m *int) string {
	if m == nil {
		return "n/a"
	}
	return formatMinutes(*m)
}

func formatMinutes(m int) string {
	if m >= 60 {
		if m%60 == 0 {
			return fmt.Sprintf("%dh", m/60)
		}
		return fmt.Sprintf("%dh%02dm", m/60, m%60)
	}
	return fmt.Sprintf("%dm", m)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
