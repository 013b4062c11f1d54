package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folio/folio/internal/output"
)

// outputOptions holds the --output-format, --out and --out-dir flags.
type outputOptions struct {
	format output.Format
	file   string
	dir    string
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
	cmd.Flags().String("out", "", "Write output to a file (default stdout)")
	cmd.Flags().String("out-dir", "", "Write output to a directory")
}

func readOutputOptions(cmd *cobra.Command) (outputOptions, error) {
	var opts outputOptions

	value, err := cmd.Flags().GetString("output-format")
	if err != nil {
		return opts, err
	}
	if opts.format, err = output.ParseFormat(value); err != nil {
		return opts, err
	}
	if opts.file, err = cmd.Flags().GetString("out"); err != nil {
		return opts, err
	}
	if opts.dir, err = cmd.Flags().GetString("out-dir"); err != nil {
		return opts, err
	}

	opts.file = strings.TrimSpace(opts.file)
	opts.dir = strings.TrimSpace(opts.dir)
	if opts.file != "" && opts.dir != "" {
		return opts, fmt.Errorf("--out and --out-dir are mutually exclusive")
	}
	return opts, nil
}

// target resolves the file for a report called name. An empty result or "-"
// means the command's stdout.
func (o outputOptions) target(name string) (string, error) {
	if o.dir == "" {
		return o.file, nil
	}
	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	dir, err := filepath.Abs(o.dir)
	if err != nil {
		dir = o.dir
	}
	return filepath.Join(dir, sanitizeFilename(name)+"."+o.format.Extension()), nil
}

// writeRendered sends rendered to --out, --out-dir/<name>.<ext>, or stdout.
func writeRendered(cmd *cobra.Command, opts outputOptions, name, rendered string) error {
	path, err := opts.target(name)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if path != "" && path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close() // nolint:errcheck // best-effort cleanup
		w = file
	}

	_, err = fmt.Fprintln(w, rendered)
	return err
}

var nonFilename = regexp.MustCompile(`[^a-z0-9._-]+`)

func sanitizeFilename(value string) string {
	clean := strings.ToLower(strings.TrimSpace(value))
	clean = nonFilename.ReplaceAllString(clean, "-")
	clean = strings.Trim(clean, "-.")
	if clean == "" {
		return "output"
	}
	return clean
}
