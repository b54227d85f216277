package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List planning sessions",
	Long: `List sessions in reverse chronological order.

Shows each day's goal, state, and completion without loading full
conversation history.

Examples:
  dayplan list
  dayplan list --limit 7`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of sessions to display")
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	metas, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(metas) == 0 {
		fmt.Println("No sessions yet. Run 'dayplan plan' to start one.")
		return nil
	}
	if len(metas) > listLimit {
		metas = metas[:listLimit]
	}

	for _, m := range metas {
		goal := m.Goal
		if goal == "" {
			goal = dimStyle.Render("(no goal yet)")
		}
		fmt.Printf("%s  %-10s  %s\n", headingStyle.Render(m.Date), m.State, goal)
		if m.Items > 0 {
			fmt.Printf("            %d/%d tasks done (%.0f%%)\n", m.Completed, m.Items, m.CompletionRate*100)
		}
		fmt.Printf("            %s\n", dimStyle.Render("updated "+relativeTime(m.LastUpdated)))
	}
	return nil
}
