package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akuzmina/ripeto/internal/catalog"
	"github.com/akuzmina/ripeto/internal/engine"
	"github.com/akuzmina/ripeto/internal/gamification"
	"github.com/akuzmina/ripeto/internal/progress"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start a practice session over the words due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd)
		if err != nil {
			return err
		}
		defer app.close()

		dir := progress.Direction(mustString(cmd, "direction"))
		limit, _ := cmd.Flags().GetInt("limit")
		category, _ := cmd.Flags().GetString("category")

		// Retry the queue in the background while the user practices.
		app.syncer.Start(app.cfg.SyncInterval)

		return runPractice(cmd, app, dir, category, limit)
	},
}

func init() {
	practiceCmd.Flags().StringP("direction", "d", string(progress.DirectionRuIt), "Translation direction: ru-it or it-ru")
	practiceCmd.Flags().IntP("limit", "n", 10, "Maximum words in the session")
	practiceCmd.Flags().StringP("category", "c", "", "Restrict practice to one catalog category")
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func runPractice(cmd *cobra.Command, app *appContext, dir progress.Direction, category string, limit int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var candidateIDs []string
	if category != "" {
		words, err := app.catalog.ByCategory(ctx, category)
		if err != nil {
			return err
		}
		if len(words) == 0 {
			fmt.Fprintf(out, "No words in category %q. Run `ripeto import` first.\n", category)
			return nil
		}
		for _, w := range words {
			candidateIDs = append(candidateIDs, w.ID)
		}
	}

	breakdown, err := app.engine.GetDueWords(ctx, candidateIDs)
	if err != nil {
		return err
	}
	queue := append(breakdown.Overdue, breakdown.DueToday...)
	if len(queue) == 0 {
		queue = breakdown.DueSoon
	}
	if len(queue) == 0 {
		fmt.Fprintln(out, "Nothing due. Come back tomorrow!")
		return nil
	}
	if limit > 0 && len(queue) > limit {
		queue = queue[:limit]
	}

	sess, err := app.engine.StartSession(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Session %s started (%s), %d words due.\n\n", sess.ID[:8], dir, len(queue))

	scanner := bufio.NewScanner(os.Stdin)
	for i, wp := range queue {
		word, err := app.catalog.Get(ctx, wp.WordID)
		if err != nil {
			return err
		}
		if word == nil {
			continue
		}

		fmt.Fprintf(out, "[%d/%d] %s\n> ", i+1, len(queue), word.Prompt(dir))
		if !scanner.Scan() {
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		correct := strings.EqualFold(answer, word.Answer(dir))

		res, err := app.engine.UpdateProgress(ctx, word.ID, correct)
		if err != nil {
			return err
		}
		printAnswerFeedback(out, word, dir, correct, res)
	}

	closed, err := app.engine.EndSession(ctx)
	if err != nil {
		return err
	}
	if closed != nil {
		fmt.Fprintf(out, "\nSession finished: %d/%d correct.\n", closed.CorrectAnswers, closed.WordsStudied)
	}

	if n, err := app.engine.PendingEvents(ctx); err == nil && n > 0 {
		fmt.Fprintf(out, "%d answers queued offline. Run `ripeto sync` when back online.\n", n)
	}
	return scanner.Err()
}

func printAnswerFeedback(out io.Writer, word *catalog.Word, dir progress.Direction, correct bool, res *engine.ApplyResult) {
	if correct {
		fmt.Fprintf(out, "Correct! (level %d, +%d XP)\n", res.Progress.MasteryLevel, gamification.XPPerCorrect)
	} else {
		fmt.Fprintf(out, "Not quite. %s = %s (level %d)\n", word.Prompt(dir), word.Answer(dir), res.Progress.MasteryLevel)
	}
	for _, u := range res.Unlocks {
		fmt.Fprintf(out, "Achievement unlocked: %s (+%d XP)\n", u.Title, u.RewardXP)
	}
	fmt.Fprintln(out)
}
