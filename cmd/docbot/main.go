// Package main provides the docbot binary: the webhook server plus offline
// helpers for rendering documents, merging approval tables and validating
// governance files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "docbot"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Documentation governance bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `docbot publishes governed markdown documents from GitHub to SharePoint.

It listens for GitHub webhooks, renders pushed documents to pages and PDFs,
and keeps the approval table of pull requests current.`,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(
		serveCmd(&configPath),
		renderCmd(&configPath),
		approvalsCmd(),
		configCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}
