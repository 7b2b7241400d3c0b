package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sof-extractor/backend/internal/export"
	"github.com/sof-extractor/backend/internal/models"
)

// RowSeparator joins an event label and its details in rendered rows.
const RowSeparator = export.DetailSeparator

// EventRow formats one event as "label | detail | detail".
func EventRow(ev models.Event) string {
	parts := make([]string, 0, len(ev.Details)+1)
	parts = append(parts, ev.Event)
	parts = append(parts, ev.Details...)
	return strings.Join(parts, RowSeparator)
}

// RenderSelection lists pending files with their sizes.
func RenderSelection(w io.Writer, files []models.UploadFile) error {
	if len(files) == 0 {
		_, err := fmt.Fprintln(w, "No files selected")
		return err
	}

	var total int64
	for _, f := range files {
		total += f.Size()
	}
	if _, err := fmt.Fprintf(w, "Selected files (%d, %s):\n", len(files), humanize.Bytes(uint64(total))); err != nil {
		return err
	}
	for i, f := range files {
		if _, err := fmt.Fprintf(w, "  %d. %s (%s)\n", i+1, f.Name, humanize.Bytes(uint64(f.Size()))); err != nil {
			return err
		}
	}
	return nil
}

// RenderResults writes one card per result.
func RenderResults(w io.Writer, results []models.ExtractionResult) error {
	if _, err := fmt.Fprintf(w, "Extraction results: %d file(s), %d event(s)\n",
		len(results), models.EventCount(results)); err != nil {
		return err
	}
	for _, r := range results {
		if err := renderCard(w, r); err != nil {
			return err
		}
	}
	return nil
}

func renderCard(w io.Writer, r models.ExtractionResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n== %s ==\n", r.Filename)
	if r.Preview != "" {
		fmt.Fprintf(&b, "Preview: %s\n", r.Preview)
	}
	if len(r.Events) == 0 {
		b.WriteString("  (no events)\n")
	}
	for _, ev := range r.Events {
		fmt.Fprintf(&b, "  %s\n", EventRow(ev))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderError writes the visible error line of a failed upload.
func RenderError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

// Render writes whatever the session currently shows.
func Render(w io.Writer, snap Snapshot) error {
	switch snap.State {
	case StateProcessing:
		_, err := fmt.Fprintf(w, "Processing %d file(s)...\n", len(snap.Pending))
		return err
	case StateFailed:
		return RenderError(w, snap.Err)
	case StateReady:
		return RenderResults(w, snap.Results)
	default:
		return RenderSelection(w, snap.Pending)
	}
}
