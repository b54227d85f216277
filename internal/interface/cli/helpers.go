package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"dayplan/internal/core/models"
	"dayplan/internal/core/store"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

var dateParser = when.New(nil)

func init() {
	dateParser.Add(en.All...)
	dateParser.Add(common.All...)
}

// resolveDate turns a CLI date argument into YYYY-MM-DD. Accepts the
// canonical format, natural language ("today", "yesterday", "last
// friday"), or empty for today.
func resolveDate(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return time.Now().Format(models.DateLayout), nil
	}
	if t, err := time.Parse(models.DateLayout, arg); err == nil {
		return t.Format(models.DateLayout), nil
	}
	result, err := dateParser.Parse(arg, time.Now())
	if err == nil && result != nil {
		return result.Time.Format(models.DateLayout), nil
	}
	return "", fmt.Errorf("cannot interpret %q as a date (try YYYY-MM-DD or \"yesterday\")", arg)
}

// loadSession loads a session and prints any corruption-recovery
// warning before handing it back.
func loadSession(st *store.Store, date string) (*models.Session, error) {
	sess, warn, err := st.Load(date)
	if err != nil {
		return nil, err
	}
	if warn != nil {
		fmt.Println(warnStyle.Render(warn.Error()))
	}
	return sess, nil
}

// requirePlan loads the session for a date and insists it has a plan.
func requirePlan(st *store.Store, date string) (*models.Session, error) {
	sess, err := loadSession(st, date)
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("no session for %s: run 'dayplan plan' first", date)
		}
		return nil, err
	}
	if sess.Plan == nil {
		return nil, fmt.Errorf("session %s has no plan yet: run 'dayplan plan' first", date)
	}
	return sess, nil
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func statusLabel(item *models.ScheduleItem) string {
	switch item.Status {
	case models.StatusCompleted:
		return doneStyle.Render("done")
	case models.StatusInProgress:
		return warnStyle.Render("in progress")
	case models.StatusSkipped:
		if item.SkipReason != "" {
			return dimStyle.Render("skipped: " + item.SkipReason)
		}
		return dimStyle.Render("skipped")
	default:
		return " "
	}
}

// printSchedule renders the day's schedule with per-item status.
func printSchedule(plan *models.Plan) {
	for i := range plan.Schedule {
		item := &plan.Schedule[i]
		est := ""
		if item.EstimatedMinutes != nil {
			est = dimStyle.Render(fmt.Sprintf(" (%dm)", *item.EstimatedMinutes))
		}
		fmt.Printf("  [%d] %s  %s%s  %s\n", i+1, item.Time, item.Task, est, statusLabel(item))
	}
}
