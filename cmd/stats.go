package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd)
		if err != nil {
			return err
		}
		defer app.close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		stats, err := app.engine.GetStats(ctx)
		if err != nil {
			return err
		}
		st, unlocks, err := app.engine.GamificationState(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Words studied:    %d (%d mastered, %d in progress)\n",
			stats.TotalWordsStudied, stats.MasteredWords, stats.WordsInProgress)
		fmt.Fprintf(out, "Total attempts:   %d\n", stats.TotalAttempts)
		fmt.Fprintf(out, "Accuracy:         %.0f%%\n", stats.Accuracy*100)
		fmt.Fprintf(out, "Level:            %d (%d XP)\n", st.Level(), st.TotalXP)
		fmt.Fprintf(out, "Streak:           %d days (best %d)\n", st.CurrentStreak, st.LongestStreak)

		if len(unlocks) > 0 {
			fmt.Fprintln(out, "\nAchievements:")
			for _, u := range unlocks {
				fmt.Fprintf(out, "  %s (+%d XP, %s)\n", u.Title, u.RewardXP, u.UnlockedAt.Format("2006-01-02"))
			}
		}

		sessions, err := app.engine.RecentSessions(ctx, 5)
		if err != nil {
			return err
		}
		if len(sessions) > 0 {
			fmt.Fprintln(out, "\nRecent sessions:")
			for _, s := range sessions {
				state := "open"
				if s.EndedAt != nil {
					state = s.EndedAt.Sub(s.StartedAt).Round(1e9).String()
				}
				fmt.Fprintf(out, "  %s  %s  %d/%d correct  (%s)\n",
					s.StartedAt.Format("2006-01-02 15:04"), s.Direction, s.CorrectAnswers, s.WordsStudied, state)
			}
		}
		return nil
	},
}
