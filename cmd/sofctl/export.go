package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sof-extractor/backend/internal/export"
	"github.com/sof-extractor/backend/internal/models"
)

type exportOptions struct {
	in     string
	format string
	out    string
}

func newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert a saved results file to another format",
		Long: `Read a results document ({"results": [...]} or a bare array) and write it
as JSON, CSV or msgpack. Without --out the export goes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.in, "in", "i", "-", "Results file, - for stdin")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "Export format: json, csv or msgpack")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output path (default stdout)")
	return cmd
}

func runExport(stdin io.Reader, stdout io.Writer, opts *exportOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	var raw []byte
	if opts.in == "" || opts.in == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(opts.in)
	}
	if err != nil {
		return fmt.Errorf("reading results: %w", err)
	}

	results, err := export.DecodeResults(raw)
	if err != nil {
		return err
	}

	if opts.out == "" {
		return export.Write(stdout, format, results)
	}
	return writeExport(opts.out, format, results)
}

func writeExport(path string, format export.Format, results []models.ExtractionResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.Write(f, format, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
