package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/akuzmina/ripeto/internal/progress"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List words due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd)
		if err != nil {
			return err
		}
		defer app.close()

		b, err := app.engine.GetDueWords(cmd.Context(), nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if b.Total == 0 {
			fmt.Fprintln(out, "Nothing due.")
			return nil
		}

		printBucket(out, "Overdue", b.Overdue)
		printBucket(out, "Due today", b.DueToday)
		printBucket(out, "Due soon", b.DueSoon)
		fmt.Fprintf(out, "Total: %d\n", b.Total)
		return nil
	},
}

func printBucket(out io.Writer, name string, words []progress.WordProgress) {
	if len(words) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", name, len(words))
	for _, w := range words {
		last := "never"
		if w.LastPracticed != nil {
			last = w.LastPracticed.Format("2006-01-02")
		}
		fmt.Fprintf(out, "  %-20s level %d, last practiced %s\n", w.WordID, w.MasteryLevel, last)
	}
}
