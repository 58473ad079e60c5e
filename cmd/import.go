package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akuzmina/ripeto/internal/catalog"
)

var importCmd = &cobra.Command{
	Use:   "import <words.json>",
	Short: "Load or refresh the word catalog from a JSON file",
	Long:  "Import upserts catalog entries by id, so re-importing an updated file fixes typos without touching progress.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd)
		if err != nil {
			return err
		}
		defer app.close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read words file: %w", err)
		}
		var words []catalog.Word
		if err := json.Unmarshal(data, &words); err != nil {
			return fmt.Errorf("parse words file: %w", err)
		}

		if err := app.catalog.Import(cmd.Context(), words); err != nil {
			return err
		}

		total, err := app.catalog.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d words, catalog now has %d.\n", len(words), total)
		return nil
	},
}
