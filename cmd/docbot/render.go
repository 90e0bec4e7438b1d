package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-docbot"
	"github.com/goliatone/go-docbot/internal/markdown"
	"github.com/goliatone/go-docbot/internal/pdf"
)

func renderCmd(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render <file.md>",
		Short: "Render a markdown document to PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := docbot.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			input := args[0]
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
			}
			pages, err := renderFile(cmd.Context(), cfg.PDF, input, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages)\n", output, pages)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF path (defaults to the input name with .pdf)")
	return cmd
}

func renderFile(ctx context.Context, cfg docbot.PDFConfig, input, output string) (int, error) {
	source, err := os.ReadFile(input)
	if err != nil {
		return 0, err
	}
	doc, err := markdown.ParsePolicyDocument(filepath.ToSlash(input), source)
	if err != nil {
		return 0, err
	}

	renderer, err := pdf.NewRenderer(cfg.Config)
	if err != nil {
		return 0, err
	}
	opts := cfg.Options()
	opts.Title = doc.FrontMatter.Title
	opts.Author = doc.FrontMatter.Owner
	opts.Images = localImages(filepath.Dir(input))

	result, err := renderer.RenderMarkdown(ctx, string(doc.Body), opts)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(output, result.Data, 0o644); err != nil {
		return 0, err
	}
	return result.PageCount, nil
}

// localImages resolves image references against the document directory.
// Remote and missing images render as their alt text.
func localImages(dir string) pdf.ImageLoader {
	return func(_ context.Context, src string) ([]byte, error) {
		if strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
			return nil, nil
		}
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(src, "./"))))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return data, err
	}
}
