package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dayplan/internal/core/history"
	"dayplan/internal/core/models"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the planning profile",
	Long: `Show what the planner knows about you, or set a preference.

The profile feeds the plan generator: the more complete it is, the
fewer clarifying questions each session asks.

Settable keys: role, wake, peak, priority, goal, blocked (start-end:reason).

Examples:
  dayplan profile
  dayplan profile set role "backend engineer"
  dayplan profile set wake 06:30
  dayplan profile set blocked "12:00-13:00:lunch"`,
	RunE: runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a profile preference",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfileSet,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	profile, err := st.LoadProfile(cfg.UserID)
	if err != nil {
		return err
	}

	score := history.ScoreCompleteness(profile)
	fmt.Println(headingStyle.Render("Profile: " + profile.UserID))
	fmt.Printf("Completeness: %d/10 (sessions will ask %d question(s))\n\n",
		score, history.QuestionTarget(score))

	printField("Role", profile.JobRole)
	printField("Work hours", profile.WorkHours.Start+"-"+profile.WorkHours.End)
	printField("Wake time", profile.WakeTime)
	printField("Peak focus", profile.PeakProductivityTime)
	printList("Priorities", profile.TopPriorities)
	printList("Long-term goals", profile.LongTermGoals)
	printList("Meeting-heavy days", profile.MeetingHeavyDays)
	for _, b := range profile.BlockedTimes {
		printField("Blocked", fmt.Sprintf("%s-%s %s", b.Start, b.End, b.Reason))
	}
	for _, r := range profile.RecurringTasks {
		printField("Recurring", fmt.Sprintf("%s (%s)", r.Name, r.Frequency))
	}

	hist := profile.History
	fmt.Printf("\nSessions completed: %d", hist.SessionsCompleted)
	if hist.LastSessionDate != "" {
		fmt.Printf(" (last: %s)", hist.LastSessionDate)
	}
	fmt.Println()
	printList("Worked well", hist.SuccessfulPatterns)
	printList("Didn't work", hist.AvoidedPatterns)
	printList("Common adjustments", hist.CommonAdjustments)
	return nil
}

func printField(label, value string) {
	if strings.TrimSpace(value) == "" || value == "-" {
		return
	}
	fmt.Printf("%-20s %s\n", label+":", value)
}

func printList(label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, v := range values {
		fmt.Printf("  - %s\n", v)
	}
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	key, value := strings.ToLower(args[0]), strings.TrimSpace(args[1])

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	profile, err := st.LoadProfile(cfg.UserID)
	if err != nil {
		return err
	}

	switch key {
	case "role":
		profile.JobRole = value
	case "wake":
		profile.WakeTime = value
	case "peak":
		profile.PeakProductivityTime = value
	case "priority":
		profile.TopPriorities = append(profile.TopPriorities, value)
	case "goal":
		profile.LongTermGoals = append(profile.LongTermGoals, value)
	case "blocked":
		blocked, err := parseBlocked(value)
		if err != nil {
			return err
		}
		profile.BlockedTimes = append(profile.BlockedTimes, blocked)
	default:
		return fmt.Errorf("unknown profile key %q", key)
	}

	if err := st.SaveProfile(profile); err != nil {
		return err
	}
	score := history.ScoreCompleteness(profile)
	fmt.Printf("Saved. Completeness is now %d/10.\n", score)
	return nil
}

// parseBlocked parses "HH:MM-HH:MM" with an optional ":reason" suffix.
func parseBlocked(value string) (models.BlockedTime, error) {
	if len(value) < 11 {
		return models.BlockedTime{}, fmt.Errorf("blocked time must look like 12:00-13:00:lunch")
	}
	window := value[:11]
	if _, _, ok := models.ParseTimeRange(window); !ok {
		return models.BlockedTime{}, fmt.Errorf("cannot parse window %q", window)
	}
	blocked := models.BlockedTime{Start: window[:5], End: window[6:]}
	if rest := strings.TrimPrefix(value[11:], ":"); rest != "" {
		blocked.Reason = rest
	}
	return blocked, nil
}
