package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akuzmina/ripeto/internal/progress"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay queued offline events against the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd)
		if err != nil {
			return err
		}
		defer app.close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		pending, err := app.engine.PendingEvents(ctx)
		if err != nil {
			return err
		}
		if pending == 0 {
			fmt.Fprintln(out, "Queue is empty, nothing to sync.")
			return nil
		}

		applied, err := app.syncer.Flush(ctx)
		if err != nil {
			if errors.Is(err, progress.ErrRemoteUnavailable) {
				fmt.Fprintf(out, "Remote store unreachable; %d events still queued.\n", pending-applied)
				return nil
			}
			return fmt.Errorf("sync stopped after %d of %d events: %w", applied, pending, err)
		}

		fmt.Fprintf(out, "Synced %d events.\n", applied)
		return nil
	},
}
