package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-docbot/internal/approvals"
)

func approvalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Work with pull request approval tables",
	}
	cmd.AddCommand(approvalsMergeCmd())
	return cmd
}

func approvalsMergeCmd() *cobra.Command {
	var (
		domains []string
		comment string
		actor   string
		date    string
	)

	cmd := &cobra.Command{
		Use:   "merge <body.md|->",
		Short: "Merge pending domains or comment decisions into a pull request body",
		Long: `Reads a pull request body and prints it with the approval table updated.

--domain adds a Pending row per domain, creating the table when missing.
--comment applies /approve and /reject decisions found in the text as --actor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			var (
				updates []approvals.Update
				opts    approvals.MergeOptions
			)
			if len(domains) > 0 {
				for _, domain := range domains {
					updates = append(updates, approvals.Update{Domain: domain})
				}
				opts = approvals.MergeOptions{
					CreateIfMissing: true,
					AllowAppend:     true,
					DefaultRows:     approvals.PendingRows(domains, nil),
				}
			}
			if strings.TrimSpace(comment) != "" {
				if strings.TrimSpace(actor) == "" {
					return fmt.Errorf("--actor is required with --comment")
				}
				at := time.Now().UTC()
				if date != "" {
					if at, err = time.Parse(time.DateOnly, date); err != nil {
						return fmt.Errorf("--date: %w", err)
					}
				}
				updates = append(updates, approvals.DecisionUpdates(approvals.ParseDecisions(comment), actor, at)...)
			}
			if len(updates) == 0 {
				return fmt.Errorf("nothing to merge: pass --domain or --comment")
			}

			result, err := approvals.Merge(body, updates, opts)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), result.Body)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&domains, "domain", nil, "Domain that must approve (repeatable)")
	cmd.Flags().StringVar(&comment, "comment", "", "Comment text with /approve or /reject commands")
	cmd.Flags().StringVar(&actor, "actor", "", "Commenter recorded as the approver, e.g. @alice")
	cmd.Flags().StringVar(&date, "date", "", "Decision date (YYYY-MM-DD), defaults to today")
	return cmd
}

func readBody(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
