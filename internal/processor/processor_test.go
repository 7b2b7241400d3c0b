package processor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sof-extractor/backend/internal/models"
	"github.com/sof-extractor/backend/internal/testutil"
)

const sampleResults = `{"results":[{"filename":"sof1.pdf","preview":"...","events":[{"event":"Berthing","details":["08:00"]}]}]}`

func newTestProcessor(t *testing.T, url string, retries int) *HTTPProcessor {
	t.Helper()
	quiet := logrus.New()
	quiet.SetLevel(logrus.ErrorLevel)

	p, err := NewHTTPProcessor(Options{
		URL:          url,
		Timeout:      5 * time.Second,
		RetryMax:     retries,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
		Logger:       quiet,
	})
	require.NoError(t, err)
	return p
}

func TestHTTPProcessor_ReturnsBodyVerbatim(t *testing.T) {
	down := testutil.NewDownstream(t, http.StatusOK, sampleResults)
	p := newTestProcessor(t, down.ProcessURL(), 0)

	body, err := p.Process(context.Background(), testutil.SampleFiles(1))
	require.NoError(t, err)
	assert.Equal(t, sampleResults, string(body))
}

func TestHTTPProcessor_OneCallWithOnePartPerFile(t *testing.T) {
	down := testutil.NewDownstream(t, http.StatusOK, `{"results":[]}`)
	p := newTestProcessor(t, down.ProcessURL(), 0)

	files := testutil.SampleFiles(3)
	_, err := p.Process(context.Background(), files)
	require.NoError(t, err)

	reqs := down.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/process", reqs[0].Path)
	require.Len(t, reqs[0].Parts, 3)
	for i, part := range reqs[0].Parts {
		assert.Equal(t, "files", part.FieldName)
		assert.Equal(t, files[i].Name, part.FileName)
		assert.Equal(t, files[i].Data, part.Data)
	}
}

func TestHTTPProcessor_NonSuccessStatus(t *testing.T) {
	down := testutil.NewDownstream(t, http.StatusInternalServerError, `{"detail":"spacy model missing"}`)
	p := newTestProcessor(t, down.ProcessURL(), 0)

	_, err := p.Process(context.Background(), testutil.SampleFiles(1))
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "spacy model missing")
	assert.Equal(t, 1, down.Calls())
}

func TestHTTPProcessor_RetriesServerErrors(t *testing.T) {
	down := testutil.NewDownstream(t, http.StatusServiceUnavailable, `busy`)
	p := newTestProcessor(t, down.ProcessURL(), 2)

	_, err := p.Process(context.Background(), testutil.SampleFiles(2))
	require.Error(t, err)
	assert.Equal(t, 3, down.Calls())

	// every attempt carries the full body
	for _, req := range down.Requests() {
		assert.Len(t, req.Parts, 2)
	}
}

func TestHTTPProcessor_DoesNotRetryClientErrors(t *testing.T) {
	down := testutil.NewDownstream(t, http.StatusUnprocessableEntity, `{"detail":"field required"}`)
	p := newTestProcessor(t, down.ProcessURL(), 3)

	_, err := p.Process(context.Background(), testutil.SampleFiles(1))
	require.Error(t, err)
	assert.Equal(t, 1, down.Calls())
}

func TestHTTPProcessor_ConnectionRefused(t *testing.T) {
	down := testutil.NewDownstream(t, http.StatusOK, `{}`)
	url := down.ProcessURL()
	down.Close()

	p := newTestProcessor(t, url, 0)
	_, err := p.Process(context.Background(), testutil.SampleFiles(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect")
}

func TestHTTPProcessor_ResponseTooLarge(t *testing.T) {
	down := testutil.NewDownstream(t, http.StatusOK, `{"results":[{"filename":"big.pdf","preview":"0123456789"}]}`)
	p, err := NewHTTPProcessor(Options{URL: down.ProcessURL(), MaxResponseSize: 16, Logger: logrus.New()})
	require.NoError(t, err)

	_, err = p.Process(context.Background(), testutil.SampleFiles(1))
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestHTTPProcessor_NoFiles(t *testing.T) {
	down := testutil.NewDownstream(t, http.StatusOK, `{}`)
	p := newTestProcessor(t, down.ProcessURL(), 0)

	_, err := p.Process(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, 0, down.Calls())
}

func TestNewHTTPProcessor_RequiresURL(t *testing.T) {
	_, err := NewHTTPProcessor(Options{URL: "  "})
	assert.Error(t, err)
}

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()

	retry, err := retryPolicy(ctx, &http.Response{StatusCode: http.StatusBadRequest}, nil)
	assert.False(t, retry)
	assert.NoError(t, err)

	retry, _ = retryPolicy(ctx, &http.Response{StatusCode: http.StatusTooManyRequests}, nil)
	assert.True(t, retry)

	retry, _ = retryPolicy(ctx, &http.Response{StatusCode: http.StatusBadGateway}, nil)
	assert.True(t, retry)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err = retryPolicy(cancelled, nil, errors.New("boom"))
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFunc(t *testing.T) {
	var p Processor = Func(func(_ context.Context, files []models.UploadFile) ([]byte, error) {
		return []byte(files[0].Name), nil
	})
	out, err := p.Process(context.Background(), testutil.SampleFiles(1))
	require.NoError(t, err)
	assert.Equal(t, "sof1.pdf", string(out))
}
