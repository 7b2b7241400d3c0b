package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sof-extractor/backend/internal/formdata"
	"github.com/sof-extractor/backend/internal/models"
)

const (
	// UploadPath is where the relay listens.
	UploadPath = "/api/upload"

	DefaultTimeout = 120 * time.Second

	maxResponseBytes = 32 << 20
	maxErrorBody     = 4 << 10
)

// Uploader submits a batch of files and returns the extraction results.
type Uploader interface {
	Upload(ctx context.Context, files []models.UploadFile) ([]models.ExtractionResult, error)
}

// HTTPError is a non-2xx answer from the relay.
type HTTPError struct {
	StatusCode int
	Message    string // "error" field of the envelope, if any
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upload failed: status=%d: %s", e.StatusCode, e.Message)
	}
	if e.Body == "" {
		return fmt.Sprintf("upload failed: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upload failed: status=%d body=%s", e.StatusCode, e.Body)
}

// HTTPUploader posts files to a relay over HTTP.
type HTTPUploader struct {
	HTTP    *http.Client
	BaseURL string
	Logger  *logrus.Logger
}

// NewHTTPUploader creates an uploader for the relay at baseURL.
func NewHTTPUploader(baseURL string, timeout time.Duration, log *logrus.Logger) (*HTTPUploader, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("client: empty server url")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HTTPUploader{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Logger:  log,
	}, nil
}

// Upload sends every file as a repeated "files" part in one request.
func (u *HTTPUploader) Upload(ctx context.Context, files []models.UploadFile) ([]models.ExtractionResult, error) {
	body, contentType, err := formdata.Encode(formdata.FieldFiles, files)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.BaseURL+UploadPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("client: new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	entry := u.Logger.WithFields(logrus.Fields{
		"url":   req.URL.String(),
		"files": len(files),
		"bytes": len(body),
	})
	entry.Debug("uploading")

	resp, err := u.HTTP.Do(req)
	if err != nil {
		entry.WithError(err).Warn("upload request failed")
		return nil, fmt.Errorf("client: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw := readAtMost(resp.Body, maxErrorBody)
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: raw}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal([]byte(raw), &envelope) == nil {
			httpErr.Message = envelope.Error
		}
		entry.WithField("status", resp.StatusCode).Warn("upload rejected")
		return nil, httpErr
	}

	var envelope models.ResultsEnvelope
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("client: decode results: %w", err)
	}
	if envelope.Results == nil {
		envelope.Results = []models.ExtractionResult{}
	}

	entry.WithField("results", len(envelope.Results)).Debug("upload complete")
	return envelope.Results, nil
}

func readAtMost(r io.Reader, n int64) string {
	b, _ := io.ReadAll(io.LimitReader(r, n))
	return strings.TrimSpace(string(b))
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(ctx context.Context, files []models.UploadFile) ([]models.ExtractionResult, error)

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, files []models.UploadFile) ([]models.ExtractionResult, error) {
	return f(ctx, files)
}
