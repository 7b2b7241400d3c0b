// downstream.go - Recording stand-in for the extraction service
package testutil

import (
	"bytes"
	"mime"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/sof-extractor/backend/internal/formdata"
	"github.com/sof-extractor/backend/internal/models"
)

// RecordedPart is one multipart part received by the downstream.
type RecordedPart struct {
	FieldName   string
	FileName    string
	ContentType string
	Data        []byte
}

// RecordedRequest is one request received by the downstream.
type RecordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Parts       []RecordedPart
}

// Downstream is an httptest server that records every request and answers
// with a fixed status and body.
type Downstream struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	body     []byte
	requests []RecordedRequest
}

// NewDownstream starts a recording server. It is closed when the test ends.
func NewDownstream(t testing.TB, status int, body string) *Downstream {
	t.Helper()

	d := &Downstream{status: status, body: []byte(body)}
	d.Server = httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.Close)
	return d
}

// ProcessURL returns the URL of the /process endpoint.
func (d *Downstream) ProcessURL() string {
	return d.Server.URL + "/process"
}

// Respond changes the status and body of subsequent responses.
func (d *Downstream) Respond(status int, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
	d.body = []byte(body)
}

// Requests returns a copy of the recorded requests.
func (d *Downstream) Requests() []RecordedRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RecordedRequest, len(d.requests))
	copy(out, d.requests)
	return out
}

// Calls returns the number of requests received.
func (d *Downstream) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

func (d *Downstream) serve(w http.ResponseWriter, r *http.Request) {
	rec := RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
	}

	var decodeErr error
	if _, params, err := mime.ParseMediaType(rec.ContentType); err == nil && params["boundary"] != "" {
		parts, err := formdata.Decode(r.Body, params["boundary"])
		decodeErr = err
		for _, p := range parts {
			rec.Parts = append(rec.Parts, RecordedPart{
				FieldName:   p.FieldName,
				FileName:    p.Name,
				ContentType: p.ContentType,
				Data:        p.Data,
			})
		}
	}

	d.mu.Lock()
	d.requests = append(d.requests, rec)
	status, body := d.status, d.body
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if decodeErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"malformed multipart body"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// MultipartBody builds an upload body with every file under field.
func MultipartBody(t testing.TB, field string, files ...models.UploadFile) (*bytes.Buffer, string) {
	t.Helper()

	body, contentType, err := formdata.Encode(field, files)
	if err != nil {
		t.Fatalf("encoding multipart body: %v", err)
	}
	return bytes.NewBuffer(body), contentType
}

// SampleFiles returns n small PDF uploads named sofN.pdf.
func SampleFiles(n int) []models.UploadFile {
	files := make([]models.UploadFile, 0, n)
	for i := 1; i <= n; i++ {
		files = append(files, models.UploadFile{
			Name:        "sof" + strconv.Itoa(i) + ".pdf",
			ContentType: models.ContentTypePDF,
			Data:        []byte("%PDF-1.4 statement of facts " + strconv.Itoa(i)),
		})
	}
	return files
}
