package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dayplan/internal/core/engine"
	"dayplan/internal/core/history"
	"dayplan/internal/core/llm"
	"dayplan/internal/core/models"
	"dayplan/internal/core/store"
)

var planDate string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a day interactively",
	Long: `Start or resume the planning conversation for a day.

State your goal, answer a few clarifying questions, then accept the
proposed schedule or ask for changes. Progress is saved after every
turn, so the conversation survives interruption.

Examples:
  dayplan plan
  dayplan plan --date tomorrow
  dayplan plan --date 2026-03-14`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planDate, "date", "", "Date to plan (default: today)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	date, err := resolveDate(planDate)
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
		var nf *models.NotFoundError
		if !errors.As(err, &nf) {
			return err
		}
		sess = models.NewSession(date)
	}
	if sess.State == models.StateDone {
		fmt.Printf("The plan for %s is already accepted.\n\n", date)
		printSchedule(sess.Plan)
		return nil
	}

	profile, err := st.LoadProfile(cfg.UserID)
	if err != nil {
		return err
	}

	generator, err := llm.NewOpenAIGenerator(llm.OpenAIOptions{
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		Temperature: cfg.Temperature,
		Attempts:    cfg.Attempts,
		RetryDelay:  cfg.RetryDelay,
	})
	if err != nil {
		return err
	}

	target := history.QuestionTarget(history.ScoreCompleteness(profile))
	machine := engine.New(target)
	machine.Affirmations = append(machine.Affirmations, cfg.Affirmations...)

	return planLoop(cmd, st, sess, profile, machine, generator)
}

// planLoop runs the conversation until the plan is accepted or stdin
// closes. Every turn is persisted before the next prompt.
func planLoop(cmd *cobra.Command, st *store.Store, sess *models.Session,
	profile *models.Profile, machine *engine.Machine, generator llm.Generator) error {

	scanner := bufio.NewScanner(os.Stdin)
	var pending []string // questions waiting to be asked

	for {
		prompt, question := nextPrompt(sess, pending)
		fmt.Print(prompt)
		if !scanner.Scan() {
			fmt.Println()
			return st.Save(sess)
		}
		text := strings.TrimSpace(scanner.Text())
		if question != "" && text != "" {
			pending = pending[1:]
		}

		action := machine.Advance(sess, engine.Input{Text: text, Question: question})
		switch action {
		case engine.ActionReprompt:
			fmt.Println(dimStyle.Render("I need an answer to continue."))
			continue

		case engine.ActionAskQuestion:
			if len(pending) == 0 {
				var done bool
				pending, done = generate(cmd, sess, profile, generator, pending)
				if done {
					if err := st.Save(sess); err != nil {
						return err
					}
					continue
				}
			}

		case engine.ActionGeneratePlan:
			pending, _ = generate(cmd, sess, profile, generator, pending)

		case engine.ActionFinish:
			if err := st.Save(sess); err != nil {
				return err
			}
			if history.FoldSession(profile, sess) {
				if err := st.SaveProfile(profile); err != nil {
					return err
				}
			}
			fmt.Println(doneStyle.Render("Plan accepted. Have a good day."))
			fmt.Println(dimStyle.Render("Track it with 'dayplan checkin'."))
			return nil
		}

		if err := st.Save(sess); err != nil {
			return err
		}
	}
}

// nextPrompt picks the prompt for the session's state and returns the
// question the answer will be attached to, if any.
func nextPrompt(sess *models.Session, pending []string) (prompt, question string) {
	switch sess.State {
	case models.StateIdle:
		return headingStyle.Render("What do you want to get done today?") + "\n> ", ""
	case models.StateQuestions:
		if len(pending) > 0 {
			return headingStyle.Render(pending[0]) + "\n> ", pending[0]
		}
		return "> ", ""
	case models.StateFeedback:
		return headingStyle.Render("Feedback on the plan, or 'done' to accept:") + "\n> ", ""
	}
	return "> ", ""
}

// generate asks the model for the next step. A returned plan is adopted
// into the session (done=true); returned questions are queued instead.
// Failures are reported and leave the session where it was.
func generate(cmd *cobra.Command, sess *models.Session, profile *models.Profile,
	generator llm.Generator, pending []string) ([]string, bool) {

	fmt.Println(dimStyle.Render("Thinking..."))
	proposal, err := generator.GeneratePlan(cmd.Context(), sess, profile)
	if err != nil {
		fmt.Println(warnStyle.Render("Plan generation failed: " + err.Error()))
		fmt.Println(dimStyle.Render("Your answers are saved; try again."))
		return pending, false
	}

	if proposal.Plan != nil {
		engine.ApplyProposal(sess, proposal.Plan)
		sess.State = models.StateFeedback
		fmt.Println()
		fmt.Println(headingStyle.Render("Proposed plan for " + sess.Date))
		printSchedule(sess.Plan)
		if len(sess.Plan.Priorities) > 0 {
			fmt.Println("\nPriorities: " + strings.Join(sess.Plan.Priorities, "; "))
		}
		if sess.Plan.Notes != "" {
			fmt.Println(dimStyle.Render(sess.Plan.Notes))
		}
		fmt.Println()
		return nil, true
	}

	// Questions only: step back to the question round.
	sess.State = models.StateQuestions
	for _, q := range proposal.Questions {
		sess.AddMessage(models.RoleAssistant, q)
	}
	return append(pending, proposal.Questions...), false
}
