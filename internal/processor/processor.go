// Package processor forwards uploaded files to the external extraction
// service and hands back its response body.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/sof-extractor/backend/internal/formdata"
	"github.com/sof-extractor/backend/internal/logging"
	"github.com/sof-extractor/backend/internal/models"
)

const (
	DefaultTimeout         = 60 * time.Second
	DefaultMaxResponseSize = 32 << 20
	maxErrorBodyLen        = 512
)

// Processor sends files for extraction and returns the raw response body.
type Processor interface {
	Process(ctx context.Context, files []models.UploadFile) ([]byte, error)
}

// StatusError is returned when the extraction service answers with a
// non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("processor responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("processor responded with status %d: %s", e.StatusCode, e.Body)
}

// ErrResponseTooLarge is returned when the response exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("processor response too large")

// Options configures an HTTPProcessor.
type Options struct {
	URL             string
	Timeout         time.Duration // per attempt
	RetryMax        int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxResponseSize int64
	Logger          *logrus.Logger
}

// HTTPProcessor talks to the extraction service over HTTP.
type HTTPProcessor struct {
	url             string
	client          *retryablehttp.Client
	maxResponseSize int64
	log             *logrus.Logger
}

// NewHTTPProcessor builds a processor posting to opts.URL.
func NewHTTPProcessor(opts Options) (*HTTPProcessor, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("processor: empty url")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = DefaultMaxResponseSize
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger()
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Timeout: opts.Timeout}
	client.Logger = logging.NewLeveledLogrus(opts.Logger)
	client.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	client.CheckRetry = retryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &HTTPProcessor{
		url:             opts.URL,
		client:          client,
		maxResponseSize: opts.MaxResponseSize,
		log:             opts.Logger,
	}, nil
}

// URL returns the extraction endpoint.
func (p *HTTPProcessor) URL() string {
	return p.url
}

// Process posts files as multipart form data, one "files" part per file.
func (p *HTTPProcessor) Process(ctx context.Context, files []models.UploadFile) ([]byte, error) {
	body, contentType, err := formdata.Encode(formdata.FieldFiles, files)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.url, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, p.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"url":      p.url,
		"files":    len(files),
		"status":   resp.StatusCode,
		"bytes":    len(raw),
		"duration": time.Since(start).String(),
	}).Debug("processor call finished")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), maxErrorBodyLen)}
	}
	if int64(len(raw)) > p.maxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return raw, nil
}

// retryPolicy never retries cancelled requests or client errors and defers
// to the library default otherwise.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Func adapts a function to the Processor interface.
type Func func(ctx context.Context, files []models.UploadFile) ([]byte, error)

func (f Func) Process(ctx context.Context, files []models.UploadFile) ([]byte, error) {
	return f(ctx, files)
}

var _ Processor = (*HTTPProcessor)(nil)
var _ Processor = Func(nil)
