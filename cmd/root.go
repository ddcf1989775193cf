// Package cmd implements the tolltag command line.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the tolltag command tree.
func NewRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "tolltag",
		Short:         "TollTag toll calculator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	root.AddCommand(newDemoCmd(), newQuoteCmd(), newServeCmd(&cfgPath))
	return root
}

// Execute runs the CLI.
func Execute() error { return NewRootCmd().Execute() }
