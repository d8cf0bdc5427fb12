package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Faultbox/bodyview/internal/frontend"
	"github.com/Faultbox/bodyview/internal/logger"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the interactive viewer window",
	Long: `view opens an OpenGL window on the model. Drag to orbit, scroll to zoom,
click a body part to focus it. R resets the view, C clears the focus,
P saves a screenshot and Esc quits. The HTTP bridge runs alongside.`,
	Args: cobra.NoArgs,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	logger.Info("=== bodyview ===")

	fe, err := frontend.New(rt.cfg, rt.app)
	if err != nil {
		return fmt.Errorf("failed to open viewer: %w", err)
	}
	defer fe.Close()

	rt.start(ctx)

	if err := fe.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("viewer closed normally")
	return nil
}
