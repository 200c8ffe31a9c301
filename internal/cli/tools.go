package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"folio/api/internal/auth"
	"folio/api/internal/render"
)

func renderCmd() *cobra.Command {
	var (
		variant  string
		sanitize bool
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render stored content to HTML. Use - to read stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := render.ParseVariant(variant)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			d, _ := render.Decode(raw)
			html := render.Document(d, render.Options{Variant: v})
			if sanitize {
				html = render.Sanitize(html)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
			return err
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "blog", "style variant: blog or preview")
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "pass the output through the HTML sanitizer")
	return cmd
}

func tocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toc <file>",
		Short: "Print the table of contents of stored content as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			headings := render.ExtractHeadings(raw)
			if headings == nil {
				headings = []render.Heading{}
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(headings)
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for FOLIO_ADMIN_PASSWORD_HASH.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
