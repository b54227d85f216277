package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dayplan/internal/core/models"
	"dayplan/internal/core/tracking"
)

var (
	checkinDate string
	checkinAt   string
	skipReason  string
	editField   string
	editReason  string
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Track progress against today's plan",
	Long: `Record what actually happened: start, complete, or skip tasks, and
fix mistimed entries. Every change is kept in the task's audit trail.

Tasks are referenced by schedule number, exact name, or a unique
substring.

Examples:
  dayplan checkin start 2
  dayplan checkin done "deep work"
  dayplan checkin skip standup --reason "cancelled"
  dayplan checkin edit 1 --field actual_end --at 16:45 --reason "forgot to check out"
  dayplan checkin status`,
}

var checkinStartCmd = &cobra.Command{
	Use:   "start <task>",
	Short: "Mark a task as started",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheckin(args[0], func(plan *models.Plan, at time.Time) (*models.ScheduleItem, error) {
			return tracking.StartTask(plan, args[0], at)
		}, "Started")
	},
}

var checkinDoneCmd = &cobra.Command{
	Use:   "done <task>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheckin(args[0], func(plan *models.Plan, at time.Time) (*models.ScheduleItem, error) {
			return tracking.CompleteTask(plan, args[0], at)
		}, "Completed")
	},
}

var checkinSkipCmd = &cobra.Command{
	Use:   "skip <task>",
	Short: "Mark a task as skipped",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheckin(args[0], func(plan *models.Plan, _ time.Time) (*models.ScheduleItem, error) {
			return tracking.SkipTask(plan, args[0], skipReason)
		}, "Skipped")
	},
}

var checkinEditCmd = &cobra.Command{
	Use:   "edit <task>",
	Short: "Correct a recorded timestamp",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if editField != models.FieldActualStart && editField != models.FieldActualEnd {
			return fmt.Errorf("--field must be %s or %s", models.FieldActualStart, models.FieldActualEnd)
		}
		if checkinAt == "" {
			return fmt.Errorf("--at is required for edit")
		}
		return runCheckin(args[0], func(plan *models.Plan, at time.Time) (*models.ScheduleItem, error) {
			return tracking.EditTimestamp(plan, args[0], editField, at, editReason)
		}, "Edited")
	},
}

var checkinStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the day stands",
	Args:  cobra.NoArgs,
	RunE:  runCheckinStatus,
}

func init() {
	rootCmd.AddCommand(checkinCmd)
	checkinCmd.PersistentFlags().StringVar(&checkinDate, "date", "", "Session date (default: today)")
	checkinCmd.PersistentFlags().StringVar(&checkinAt, "at", "", "Time of the event, HH:MM (default: now)")
	checkinSkipCmd.Flags().StringVar(&skipReason, "reason", "", "Why the task was skipped")
	checkinEditCmd.Flags().StringVar(&editField, "field", "", "Timestamp to edit: actual_start or actual_end")
	checkinEditCmd.Flags().StringVar(&editReason, "reason", "", "Why the timestamp is being corrected")
	checkinCmd.AddCommand(checkinStartCmd, checkinDoneCmd, checkinSkipCmd, checkinEditCmd, checkinStatusCmd)
}

// eventTime resolves --at against the session date, defaulting to now.
func eventTime(date string) (time.Time, error) {
	if checkinAt == "" {
		return time.Now(), nil
	}
	clock, err := time.Parse("15:04", checkinAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse --at %q: expected HH:MM", checkinAt)
	}
	day, err := time.ParseInLocation(models.DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.Local), nil
}

func runCheckin(ref string, apply func(*models.Plan, time.Time) (*models.ScheduleItem, error), verb string) error {
	date, err := resolveDate(checkinDate)
	if err != nil {
		return err
	}
	at, err := eventTime(date)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	sess, err := requirePlan(st, date)
	if err != nil {
		return err
	}

	item, err := apply(sess.Plan, at)
	if err != nil {
		return err
	}
	if err := st.Save(sess); err != nil {
		return err
	}

	fmt.Printf("%s: %s (%s)\n", verb, item.Task, item.Time)
	return nil
}

func runCheckinStatus(cmd *cobra.Command, args []string) error {
	date, err := resolveDate(checkinDate)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	sess, err := requirePlan(st, date)
	if err != nil {
		return err
	}

	fmt.Println(headingStyle.Render("Plan for " + date))
	printSchedule(sess.Plan)
	fmt.Println()

	now := time.Now()
	if current := tracking.GetCurrentTask(sess.Plan, now); current != nil {
		fmt.Printf("Now:  %s (%s)\n", current.Task, current.Time)
	}
	if next := tracking.GetNextTask(sess.Plan, now); next != nil {
		fmt.Printf("Next: %s (%s)\n", next.Task, next.Time)
	}

	for _, issue := range tracking.ValidateConsistency(sess.Plan) {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Inconsistent: %s: %s", issue.Task, issue.Message)))
	}
	return nil
}
