package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Faultbox/bodyview/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the viewer headless behind the HTTP host bridge",
	Long: `serve runs the focus viewer without a window. A host application drives it
through the HTTP bridge: load models, focus body parts, read back state.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	logger.Info("=== bodyview (headless) ===")
	rt.start(ctx)

	if err := rt.app.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("shutting down")
	return nil
}
