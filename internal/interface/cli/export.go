package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dayplan/internal/core/export"
)

var (
	exportDate   string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a day's plan to markdown",
	Long: `Export a session to a markdown file, or stdout with -o -.

Examples:
  dayplan export
  dayplan export --date yesterday -o yesterday.md
  dayplan export -o -`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDate, "date", "", "Session date (default: today)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path, or - for stdout (default: dayplan-<date>.md)")
}

func runExport(cmd *cobra.Command, args []string) error {
	date, err := resolveDate(exportDate)
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

	sess, err := loadSession(st, date)
	if err != nil {
		return err
	}

	doc, err := export.Markdown(sess)
	if err != nil {
		return err
	}

	if exportOutput == "-" {
		fmt.Print(doc)
		return nil
	}
	path := exportOutput
	if path == "" {
		path = fmt.Sprintf("dayplan-%s.md", date)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Exported %s to %s\n", date, path)
	return nil
}
