package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the session index",
	Long: `Rebuild the listing index from the session files.

The index is derived state; run this after restoring data from a
backup or if listings look wrong.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	n, err := st.Reindex()
	if err != nil {
		return fmt.Errorf("failed to reindex: %w", err)
	}
	fmt.Printf("Indexed %d session(s).\n", n)
	return nil
}
