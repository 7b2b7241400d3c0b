// Package export renders extraction results as downloadable files.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/sof-extractor/backend/internal/models"
)

// Format is an export file format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatMsgpack Format = "msgpack"
)

// BaseName is the download name without extension.
const BaseName = "sof-results"

// CSVHeader is the first line of every CSV export.
const CSVHeader = "filename,event,details"

// DetailSeparator joins event details in CSV cells and rendered rows.
const DetailSeparator = " | "

// ParseFormat accepts json, csv and msgpack, case-insensitively. An empty
// string means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// ContentType returns the MIME type served with the export.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatMsgpack:
		return "application/msgpack"
	default:
		return "application/json"
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// FileName returns the download file name, e.g. sof-results.csv.
func (f Format) FileName() string {
	return BaseName + "." + f.Extension()
}

// Render serializes results in format f.
func Render(f Format, results []models.ExtractionResult) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(results)
	case FormatCSV:
		return CSV(results), nil
	case FormatMsgpack:
		return Msgpack(results)
	}
	return nil, fmt.Errorf("unsupported export format: %q", string(f))
}

// Write renders results to w.
func Write(w io.Writer, f Format, results []models.ExtractionResult) error {
	data, err := Render(f, results)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// JSON returns the results as a 2-space indented array.
func JSON(results []models.ExtractionResult) ([]byte, error) {
	if results == nil {
		results = []models.ExtractionResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding json export: %w", err)
	}
	return data, nil
}

// CSV flattens results into one row per (file, event) pair. Every data field
// is quoted with embedded quotes doubled. Rows are separated by \n without a
// trailing newline.
func CSV(results []models.ExtractionResult) []byte {
	var buf bytes.Buffer
	buf.WriteString(CSVHeader)
	for _, r := range results {
		for _, ev := range r.Events {
			buf.WriteByte('\n')
			buf.WriteString(quote(r.Filename))
			buf.WriteByte(',')
			buf.WriteString(quote(ev.Event))
			buf.WriteByte(',')
			buf.WriteString(quote(strings.Join(ev.Details, DetailSeparator)))
		}
	}
	return buf.Bytes()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Msgpack returns the results array encoded as MessagePack.
func Msgpack(results []models.ExtractionResult) ([]byte, error) {
	if results == nil {
		results = []models.ExtractionResult{}
	}
	data, err := msgpack.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encoding msgpack export: %w", err)
	}
	return data, nil
}

// DecodeResults accepts either a {"results": [...]} envelope or a bare
// results array. A missing results field yields an empty list.
func DecodeResults(data []byte) ([]models.ExtractionResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty results document")
	}

	if trimmed[0] == '[' {
		var results []models.ExtractionResult
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, fmt.Errorf("decoding results array: %w", err)
		}
		return results, nil
	}

	var env models.ResultsEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decoding results envelope: %w", err)
	}
	if env.Results == nil {
		env.Results = []models.ExtractionResult{}
	}
	return env.Results, nil
}
