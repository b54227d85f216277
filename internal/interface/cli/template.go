package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dayplan/internal/core/models"
	"dayplan/internal/core/store"
)

var (
	templateDate  string
	templateDesc  string
	templateForce bool
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Save and reuse day plans",
	Long: `Save a day's plan as a named template and apply it to new dates
without going through the planning conversation.

Examples:
  dayplan template save work-day --date yesterday
  dayplan template apply work-day --date tomorrow
  dayplan template list
  dayplan template show work-day
  dayplan template delete work-day`,
}

var templateSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a day's plan as a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateSave,
}

var templateApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Apply a template to a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateApply,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
	Args:  cobra.NoArgs,
	RunE:  runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a template's schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateDelete,
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.PersistentFlags().StringVar(&templateDate, "date", "", "Session date (default: today)")
	templateCmd.PersistentFlags().BoolVarP(&templateForce, "force", "f", false, "Overwrite without asking")
	templateSaveCmd.Flags().StringVar(&templateDesc, "description", "", "When to use this template")
	templateCmd.AddCommand(templateSaveCmd, templateApplyCmd, templateListCmd, templateShowCmd, templateDeleteCmd)
}

func runTemplateSave(cmd *cobra.Command, args []string) error {
	name := args[0]
	date, err := resolveDate(templateDate)
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
	if st.TemplateExists(name) && !templateForce {
		return fmt.Errorf("template %q already exists: use --force to overwrite", name)
	}

	tpl := models.NewDayTemplate(name, templateDesc, sess.Plan)
	if err := st.SaveTemplate(tpl); err != nil {
		return err
	}
	fmt.Printf("Saved template %q with %d task(s) from %s.\n", name, len(tpl.Schedule), date)
	return nil
}

func runTemplateApply(cmd *cobra.Command, args []string) error {
	name := args[0]
	date, err := resolveDate(templateDate)
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

	tpl, err := st.LoadTemplate(name)
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("template %q not found: see 'dayplan template list'", name)
		}
		return err
	}

	sess, err := applyTemplate(st, tpl, date)
	if err != nil {
		return err
	}

	tpl.RecordUse()
	if err := st.SaveTemplate(tpl); err != nil {
		return err
	}

	fmt.Printf("Applied template %q to %s.\n\n", name, date)
	printSchedule(sess.Plan)
	fmt.Println(dimStyle.Render("\nTrack it with 'dayplan checkin'."))
	return nil
}

// applyTemplate installs the template's plan on the date's session,
// creating the session if needed. The session skips the conversation
// and lands directly in done; an existing plan needs --force.
func applyTemplate(st *store.Store, tpl *models.DayTemplate, date string) (*models.Session, error) {
	sess, err := loadSession(st, date)
	if err != nil {
		var nf *models.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
		sess = models.NewSession(date)
	}
	if sess.Plan != nil && !templateForce {
		return nil, fmt.Errorf("session %s already has a plan: use --force to replace it", date)
	}

	sess.Plan = tpl.NewDayPlan()
	sess.SetGoal("Follow the " + tpl.Name + " template")
	sess.State = models.StateDone
	sess.AddMessage(models.RoleAssistant, fmt.Sprintf("Applied template %q (%d tasks).", tpl.Name, len(tpl.Schedule)))
	if err := st.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	tpls, err := st.ListTemplates()
	if err != nil {
		return err
	}
	if len(tpls) == 0 {
		fmt.Println("No templates yet. Create one with 'dayplan template save <name>'.")
		return nil
	}
	for _, tpl := range tpls {
		fmt.Printf("%s  %d task(s), used %d time(s)\n", headingStyle.Render(tpl.Name), len(tpl.Schedule), tpl.UseCount)
		if tpl.Description != "" {
			fmt.Printf("  %s\n", tpl.Description)
		}
		if tpl.LastUsed != nil {
			fmt.Printf("  %s\n", dimStyle.Render("last used "+relativeTime(*tpl.LastUsed)))
		}
	}
	return nil
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	tpl, err := st.LoadTemplate(args[0])
	if err != nil {
		return err
	}

	fmt.Println(headingStyle.Render("Template: " + tpl.Name))
	if tpl.Description != "" {
		fmt.Println(tpl.Description)
	}
	fmt.Println()
	printSchedule(tpl.NewDayPlan())
	if len(tpl.Priorities) > 0 {
		printList("\nPriorities", tpl.Priorities)
	}
	if tpl.Notes != "" {
		fmt.Println(dimStyle.Render(tpl.Notes))
	}
	return nil
}

func runTemplateDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	if err := st.DeleteTemplate(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted template %q.\n", args[0])
	return nil
}
