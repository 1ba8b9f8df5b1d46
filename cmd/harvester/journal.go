package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/metrics"
)

// journalCmd runs a single configured journal by its display name, the
// JOURNAL mode of spec §6.
var journalCmd = &cobra.Command{
	Use:   "journal <config_path> <journal_name>",
	Short: "Harvest a single configured journal by name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := shutdownContext()
		defer cancel()

		rt, err := buildRuntime(ctx, args[0], flags)
		if err != nil {
			return err
		}
		defer rt.close()

		journal := findJournal(rt.loaded.Journals, args[1])
		if journal == nil {
			return fmt.Errorf("harvester: no journal named %q in configuration", args[1])
		}

		if err := rt.driver.RunJournal(ctx, journal); err != nil {
			metrics.PrintSummary(os.Stdout, rt.sink.Summary())
			return fmt.Errorf("harvester: journal run: %w", err)
		}

		metrics.PrintSummary(os.Stdout, rt.sink.Summary())
		return nil
	},
}

func findJournal(journals []*domain.JournalParams, name string) *domain.JournalParams {
	for _, j := range journals {
		if j.Name == name {
			return j
		}
	}
	return nil
}
