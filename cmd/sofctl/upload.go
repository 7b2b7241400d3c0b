package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sof-extractor/backend/internal/client"
	"github.com/sof-extractor/backend/internal/export"
	"github.com/sof-extractor/backend/internal/models"
)

type uploadOptions struct {
	lenient bool
	format  string
	out     string
}

func newUploadCmd(root *rootOptions) *cobra.Command {
	opts := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload documents and print the extracted events",
		Long: fmt.Sprintf(`Upload one or more SoF documents in a single request.

Supported extensions: %s.
Files with an unsupported type are reported and skipped; the rest are sent.
With --format the results are also exported, to --out or sof-results.<ext>.`,
			strings.Join(models.AcceptedExtensions, ", ")),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
			defer cancel()

			uploader, err := client.NewHTTPUploader(root.server, root.timeout, logger())
			if err != nil {
				return err
			}
			return runUpload(ctx, cmd.OutOrStdout(), uploader, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.lenient, "lenient", false, "Also accept any type mentioning pdf, word or document")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Export format: json, csv or msgpack")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Export path (default sof-results.<ext>)")
	return cmd
}

func runUpload(ctx context.Context, w io.Writer, uploader client.Uploader, opts *uploadOptions, paths []string) error {
	var format export.Format
	if opts.format != "" {
		f, err := export.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
	}

	files, err := client.LoadFiles(ctx, paths)
	if err != nil {
		return err
	}

	policy := client.DefaultPolicy()
	if opts.lenient {
		policy = client.LenientPolicy()
	}
	session := client.NewSession(uploader, policy)

	for _, f := range session.Add(files...) {
		if _, err := fmt.Fprintf(w, "Skipping %s: unsupported type %s\n", f.Name, f.ContentType); err != nil {
			return err
		}
	}

	snap := session.Snapshot()
	if err := client.Render(w, snap); err != nil {
		return err
	}

	results, err := session.Start(ctx)
	if err != nil {
		if errors.Is(err, client.ErrNoFiles) {
			return err
		}
		return errors.Join(err, client.Render(w, session.Snapshot()))
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := client.Render(w, session.Snapshot()); err != nil {
		return err
	}

	if opts.format == "" {
		return nil
	}
	out := opts.out
	if out == "" {
		out = format.FileName()
	}
	if err := writeExport(out, format, results); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\nExported %d event(s) to %s\n", models.EventCount(results), out)
	return err
}
