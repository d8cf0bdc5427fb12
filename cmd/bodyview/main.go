// Package main is the entry point for the bodyview injury focus viewer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/bodyview/internal/config"
)

var flags config.Flags

var rootCmd = &cobra.Command{
	Use:   "bodyview",
	Short: "Focus and highlight injured body parts on a 3D anatomical model",
	Long: `bodyview loads a 3D body model, focuses the camera on an injured body part,
highlights it by injury status and fades whatever hides it from view.
A local HTTP bridge lets a host application drive the viewer.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags.Register(rootCmd.PersistentFlags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
