package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sof-extractor/backend/internal/client"
	"github.com/sof-extractor/backend/internal/export"
	"github.com/sof-extractor/backend/internal/models"
	"github.com/sof-extractor/backend/internal/testutil"
)

const relayBody = `{"results":[{"filename":"a.pdf","events":[{"event":"Berthing","details":["08:00"]},{"event":"Loading","details":["09:00","17:00"]}]}]}`

func writeDocs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(paths[i], []byte("doc "+name), 0o644))
	}
	return paths
}

func TestUploadCommand(t *testing.T) {
	relay := testutil.NewDownstream(t, http.StatusOK, relayBody)
	paths := writeDocs(t, "a.pdf", "photo.png")
	out := filepath.Join(t.TempDir(), "events.csv")

	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"upload", "--server", relay.URL, "--format", "csv", "--out", out}, paths...))

	require.NoError(t, cmd.Execute())

	text := stdout.String()
	assert.Contains(t, text, "Skipping photo.png: unsupported type image/png")
	assert.Contains(t, text, "Selected files (1,")
	assert.Contains(t, text, "== a.pdf ==")
	assert.Contains(t, text, "  Loading | 09:00 | 17:00")
	assert.Contains(t, text, "Exported 2 event(s) to "+out)

	reqs := relay.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Parts, 1)
	assert.Equal(t, "a.pdf", reqs[0].Parts[0].FileName)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"filename", "event", "details"},
		{"a.pdf", "Berthing", "08:00"},
		{"a.pdf", "Loading", "09:00 | 17:00"},
	}, records)
}

func TestRunUpload_Failure(t *testing.T) {
	paths := writeDocs(t, "a.pdf")
	boom := &client.HTTPError{StatusCode: http.StatusInternalServerError, Message: "Failed to process files: timeout"}
	uploader := client.UploaderFunc(func(context.Context, []models.UploadFile) ([]models.ExtractionResult, error) {
		return nil, boom
	})

	var w bytes.Buffer
	err := runUpload(context.Background(), &w, uploader, &uploadOptions{}, paths)
	require.Error(t, err)

	var httpErr *client.HTTPError
	assert.True(t, errors.As(err, &httpErr))
	assert.Contains(t, w.String(), "Error: upload failed: status=500: Failed to process files: timeout")
}

func TestRunUpload_AllRejected(t *testing.T) {
	paths := writeDocs(t, "photo.png")
	called := false
	uploader := client.UploaderFunc(func(context.Context, []models.UploadFile) ([]models.ExtractionResult, error) {
		called = true
		return nil, nil
	})

	var w bytes.Buffer
	err := runUpload(context.Background(), &w, uploader, &uploadOptions{}, paths)
	assert.ErrorIs(t, err, client.ErrNoFiles)
	assert.False(t, called)
	assert.Contains(t, w.String(), "No files selected")
}

func TestRunUpload_BadFormat(t *testing.T) {
	err := runUpload(context.Background(), &bytes.Buffer{}, nil, &uploadOptions{format: "xlsx"}, writeDocs(t, "a.pdf"))
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, out []byte)
	}{
		{
			name:   "csv",
			format: "csv",
			check: func(t *testing.T, out []byte) {
				assert.Equal(t, 3, strings.Count(string(out), "\n")+1)
			},
		},
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, out []byte) {
				results, err := export.DecodeResults(out)
				require.NoError(t, err)
				require.Len(t, results, 1)
				assert.Equal(t, "a.pdf", results[0].Filename)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			var stdout bytes.Buffer
			cmd.SetIn(strings.NewReader(relayBody))
			cmd.SetOut(&stdout)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"export", "--format", tt.format})

			require.NoError(t, cmd.Execute())
			tt.check(t, stdout.Bytes())
		})
	}
}

func TestRunExport_File(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "results.json")
	out := filepath.Join(dir, "results.msgpack")
	require.NoError(t, os.WriteFile(in, []byte(relayBody), 0o644))

	require.NoError(t, runExport(nil, nil, &exportOptions{in: in, format: "msgpack", out: out}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	err = runExport(strings.NewReader("not json"), &bytes.Buffer{}, &exportOptions{in: "-", format: "csv"})
	assert.Error(t, err)
}

func TestUploadCommand_HelpListsExtensions(t *testing.T) {
	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"upload", "--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "Supported extensions: .pdf, .doc, .docx, .txt.")
}

var errWrite = errors.New("stdout closed")

// limitedWriter accepts n writes and fails every write after that.
type limitedWriter struct {
	n int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, errWrite
	}
	w.n--
	return len(p), nil
}

func TestRunUpload_WriteErrors(t *testing.T) {
	boom := errors.New("relay down")
	calls := 0
	uploader := client.UploaderFunc(func(context.Context, []models.UploadFile) ([]models.ExtractionResult, error) {
		calls++
		return nil, boom
	})

	t.Run("skip notice", func(t *testing.T) {
		calls = 0
		err := runUpload(context.Background(), &limitedWriter{}, uploader, &uploadOptions{}, writeDocs(t, "photo.png", "a.pdf"))
		assert.ErrorIs(t, err, errWrite)
		assert.Zero(t, calls)
	})

	t.Run("failure line", func(t *testing.T) {
		calls = 0
		// the selection header and its single row succeed
		err := runUpload(context.Background(), &limitedWriter{n: 2}, uploader, &uploadOptions{}, writeDocs(t, "a.pdf"))
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, errWrite)
		assert.Equal(t, 1, calls)
	})
}
