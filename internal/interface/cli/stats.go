package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dayplan/internal/core/store"
	"dayplan/internal/core/tracking"
)

var (
	statsDate string
	statsAll  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion statistics",
	Long: `Show how a day went, or aggregates over all sessions.

Examples:
  dayplan stats
  dayplan stats --date yesterday
  dayplan stats --all`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsDate, "date", "", "Session date (default: today)")
	statsCmd.Flags().BoolVar(&statsAll, "all", false, "Aggregate over all sessions")
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	if statsAll {
		return runAggregateStats(st)
	}

	date, err := resolveDate(statsDate)
	if err != nil {
		return err
	}
	sess, err := requirePlan(st, date)
	if err != nil {
		return err
	}

	stats := tracking.GetCompletionStats(sess.Plan)
	fmt.Println(headingStyle.Render("Stats for " + date))
	fmt.Printf("Tasks:       %d total, %d done, %d skipped, %d in progress, %d untouched\n",
		stats.Total, stats.Completed, stats.Skipped, stats.InProgress, stats.NotStarted)
	fmt.Printf("Completion:  %.0f%%\n", stats.CompletionRate*100)
	fmt.Printf("Estimated:   %dm\n", stats.EstimatedTotal)
	fmt.Printf("Actual:      %dm\n", stats.ActualTotal)
	if stats.VarianceSamples > 0 {
		fmt.Printf("Variance:    %+.0fm average over %d measured task(s)\n",
			stats.AvgVariance, stats.VarianceSamples)
	}
	return nil
}

func runAggregateStats(st *store.Store) error {
	agg, err := st.Aggregate()
	if err != nil {
		return fmt.Errorf("failed to aggregate stats: %w", err)
	}
	fmt.Println(headingStyle.Render("All sessions"))
	fmt.Printf("Sessions:    %d (%d finished planning)\n", agg.Sessions, agg.Done)
	fmt.Printf("Tasks:       %d planned, %d completed\n", agg.TotalItems, agg.TotalCompleted)
	fmt.Printf("Completion:  %.0f%% average\n", agg.AvgCompletionRate*100)
	return nil
}
