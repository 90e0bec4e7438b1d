package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-docbot"
	"github.com/goliatone/go-docbot/internal/governance"
)

func configCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration files",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate <repo-config.yaml>",
			Short: "Validate a repository governance file against the schema",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				content, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				file, err := governance.ParseAndValidate(content)
				if err != nil {
					var validationErr *governance.ValidationError
					if errors.As(err, &validationErr) {
						for _, issue := range validationErr.Issues {
							location := issue.Location
							if location == "" {
								location = "#"
							}
							fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", location, issue.Message)
						}
					}
					return err
				}
				cfg := file.ToRepositoryConfig("", "")
				fmt.Fprintf(cmd.OutOrStdout(), "valid: %s documents under %s, %d cross-domain rules\n",
					cfg.DocumentType, cfg.DocumentPath, len(cfg.CrossDomainRules))
				return nil
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Load the runtime config and check it can serve",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := docbot.LoadConfig(*configPath)
				if err != nil {
					return err
				}
				if err := cfg.ValidateServe(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			},
		},
	)
	return cmd
}
