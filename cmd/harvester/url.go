package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/metrics"
)

// urlCmd runs one ad-hoc URL through the DIRECT harvest path without a
// configured journal entry, the URL mode of spec §6 (see DESIGN.md's
// Open Question decision on synthetic journal/group construction).
var urlCmd = &cobra.Command{
	Use:   "url <config_path> <raw_url>",
	Short: "Harvest a single ad-hoc URL through the direct-download path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := shutdownContext()
		defer cancel()

		rt, err := buildRuntime(ctx, args[0], flags)
		if err != nil {
			return err
		}
		defer rt.close()

		journal := &domain.JournalParams{
			ZederID:            "adhoc",
			Name:               "adhoc",
			Group:              adhocGroupName,
			EntryURL:           args[1],
			HarvesterOperation: domain.OpDirect,
			UploadOperation:    domain.UploadTest,
			Online:             domain.IssnPpn{ISSN: "0000-0000", PPN: "000000000"},
		}
		if _, ok := rt.loaded.Groups[adhocGroupName]; !ok {
			rt.loaded.Groups[adhocGroupName] = &domain.GroupParams{Name: adhocGroupName, OutputSubdir: adhocGroupName}
		}

		if err := rt.driver.RunJournal(ctx, journal); err != nil {
			metrics.PrintSummary(os.Stdout, rt.sink.Summary())
			return fmt.Errorf("harvester: url run: %w", err)
		}

		metrics.PrintSummary(os.Stdout, rt.sink.Summary())
		return nil
	},
}

// adhocGroupName is the synthetic group URL mode writes into when the
// configuration has no group by this name already.
const adhocGroupName = "adhoc"
