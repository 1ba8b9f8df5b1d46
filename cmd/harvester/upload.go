package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"zoterharvest/internal/logger"
	"zoterharvest/internal/metrics"
)

// metricsBindAddress is where upload mode serves the Prometheus scrape
// endpoint for the run's duration.
const metricsBindAddress = ":9117"

// uploadCmd runs every configured journal, the UPLOAD mode of spec §6.
var uploadCmd = &cobra.Command{
	Use:   "upload <config_path>",
	Short: "Harvest every journal in the configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := shutdownContext()
		defer cancel()

		rt, err := buildRuntime(ctx, args[0], flags)
		if err != nil {
			return err
		}
		defer rt.close()

		drainer := logger.NewProgressDrainer(logger.GlobalRegistry, logger.Logger)
		drainCtx, stopDrain := context.WithCancel(ctx)
		go drainer.Run(drainCtx)
		defer stopDrain()

		metricsServer := echo.New()
		metricsServer.HideBanner = true
		metricsServer.HidePort = true
		metrics.RegisterEndpoint(metricsServer)
		go func() {
			if err := metricsServer.Start(metricsBindAddress); err != nil {
				logger.Logger.Debug("metrics server stopped", "error", err)
			}
		}()
		defer metricsServer.Shutdown(context.Background())

		if err := rt.driver.Run(ctx, rt.loaded.Journals); err != nil {
			metrics.PrintSummary(os.Stdout, rt.sink.Summary())
			return fmt.Errorf("harvester: upload run: %w", err)
		}

		metrics.PrintSummary(os.Stdout, rt.sink.Summary())
		return nil
	},
}
