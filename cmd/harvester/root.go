// Package main is the §6 command-line driver: a spf13/cobra root command
// carrying the global flags plus three subcommands matching the three run
// modes (UPLOAD, JOURNAL, URL), grounded on altctl's cobra command tree.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zoterharvest/internal/logger"
)

type globalFlags struct {
	forceDownloads  bool
	ignoreRobots    bool
	outputDirectory string
	outputFilename  string
	configOverrides string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "zoterharvest",
	Short: "Harvest bibliographic metadata from journal sources into catalog-format output files",
	Long: `zoterharvest reads an INI-format configuration describing journals, groups,
and global parameters, harvests each journal's content through the operation
its harvester_operation_ names (DIRECT, RSS, CRAWL, APIQUERY, EMAIL), converts
the translation service's JSON response into catalog-format records, skips
anything already present in the delivery history, and writes the survivors to
per-group output files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flags.forceDownloads, "force-downloads", false, "disable cache and delivery-dedup checks for URL-based short-circuit; still archive results")
	rootCmd.PersistentFlags().BoolVar(&flags.ignoreRobots, "ignore-robots-dot-txt", false, "do not enforce robots.txt rules")
	rootCmd.PersistentFlags().StringVar(&flags.outputDirectory, "output-directory", "", "output directory (default /tmp/zotero_harvester/)")
	rootCmd.PersistentFlags().StringVar(&flags.outputFilename, "output-filename", "", "output filename (default zotero_harvester_<timestamp>.xml)")
	rootCmd.PersistentFlags().StringVar(&flags.configOverrides, "config-overrides", "", "INI snippet whose [global] section overrides the same key in every journal section")

	rootCmd.AddCommand(uploadCmd, journalCmd, urlCmd)
}

func main() {
	logger.Init()

	if err := rootCmd.Execute(); err != nil {
		logger.Logger.Error("harvester failed", "error", err)
		os.Exit(1)
	}
}

// shutdownContext returns a context cancelled on SIGINT/SIGTERM, per the
// teacher's main.go graceful-shutdown shape.
func shutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
