package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dayplan/internal/core/models"
	"dayplan/internal/core/tracking"
)

var (
	importTo          string
	importFrom        string
	importWithSkipped bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Carry unfinished tasks into another day",
	Long: `Copy a previous day's unfinished tasks (not started or in
progress) into another session's plan. Execution state is reset; the
task, its time slot, and its estimate carry over.

Examples:
  dayplan import
  dayplan import --from "last friday" --to today
  dayplan import --with-skipped`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importTo, "to", "", "Session to import into (default: today)")
	importCmd.Flags().StringVar(&importFrom, "from", "", "Session to import from (default: the day before the target)")
	importCmd.Flags().BoolVar(&importWithSkipped, "with-skipped", false, "Also carry over skipped tasks")
}

func runImport(cmd *cobra.Command, args []string) error {
	target, err := resolveDate(importTo)
	if err != nil {
		return err
	}
	source := importFrom
	if source == "" {
		day, err := time.Parse(models.DateLayout, target)
		if err != nil {
			return err
		}
		source = day.AddDate(0, 0, -1).Format(models.DateLayout)
	} else if source, err = resolveDate(source); err != nil {
		return err
	}
	if source == target {
		return fmt.Errorf("source and target are both %s", target)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	from, err := requirePlan(st, source)
	if err != nil {
		return err
	}
	tasks := tracking.CarryOverTasks(from.Plan, importWithSkipped)
	if len(tasks) == 0 {
		fmt.Printf("Nothing to import: %s has no unfinished tasks.\n", source)
		return nil
	}

	sess, err := loadSession(st, target)
	if err != nil {
		var nf *models.NotFoundError
		if !errors.As(err, &nf) {
			return err
		}
		sess = models.NewSession(target)
	}
	if sess.Plan == nil {
		sess.Plan = &models.Plan{}
	}

	added := 0
	for _, task := range tasks {
		if hasTask(sess.Plan, task.Task) {
			continue
		}
		sess.Plan.Schedule = append(sess.Plan.Schedule, task)
		added++
	}
	if added == 0 {
		fmt.Printf("All unfinished tasks from %s are already planned for %s.\n", source, target)
		return nil
	}

	if err := st.Save(sess); err != nil {
		return err
	}
	fmt.Printf("Imported %d task(s) from %s into %s.\n\n", added, source, target)
	printSchedule(sess.Plan)
	return nil
}

func hasTask(plan *models.Plan, name string) bool {
	for i := range plan.Schedule {
		if plan.Schedule[i].SameTask(name) {
			return true
		}
	}
	return false
}
