package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <date>",
	Short: "Delete a session",
	Long: `Delete the session for a date. Sessions are never deleted
automatically; this is the only way to remove one.

Examples:
  dayplan delete 2026-03-14
  dayplan delete yesterday --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	date, err := resolveDate(args[0])
	if err != nil {
		return err
	}

	if !deleteForce {
		fmt.Printf("Delete the session for %s? [y/N] ", date)
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	if err := st.Delete(date); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s.\n", date)
	return nil
}
