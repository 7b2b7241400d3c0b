package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportBody = `{"results":[{"filename":"sof1.pdf","preview":"...","events":[{"event":"Berthing","details":["08:00"]},{"event":"Loading \"bulk\"","details":["09:00","17:00"]}]}]}`

func TestExportHandler_HandleExport(t *testing.T) {
	tests := []struct {
		name            string
		query           string
		body            string
		wantStatus      int
		wantContentType string
		wantFile        string
		wantBody        string
	}{
		{
			name:            "csv",
			query:           "?format=csv",
			body:            exportBody,
			wantStatus:      http.StatusOK,
			wantContentType: "text/csv",
			wantFile:        "sof-results.csv",
			wantBody:        "filename,event,details\n\"sof1.pdf\",\"Berthing\",\"08:00\"\n\"sof1.pdf\",\"Loading \"\"bulk\"\"\",\"09:00 | 17:00\"",
		},
		{
			name:            "json is the default",
			query:           "",
			body:            `[{"filename":"a.pdf","events":[]}]`,
			wantStatus:      http.StatusOK,
			wantContentType: "application/json",
			wantFile:        "sof-results.json",
			wantBody:        "[\n  {\n    \"filename\": \"a.pdf\",\n    \"events\": []\n  }\n]",
		},
		{
			name:            "msgpack",
			query:           "?format=msgpack",
			body:            exportBody,
			wantStatus:      http.StatusOK,
			wantContentType: "application/msgpack",
			wantFile:        "sof-results.msgpack",
		},
		{
			name:       "unknown format",
			query:      "?format=xlsx",
			body:       exportBody,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			query:      "?format=csv",
			body:       `{"results":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/export"+tt.query, strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := NewExportHandler().HandleExport(c)
			if tt.wantStatus != http.StatusOK {
				apiErr, ok := err.(*APIError)
				require.True(t, ok, "expected APIError, got %T", err)
				assert.Equal(t, tt.wantStatus, apiErr.Status)
				assert.NotEmpty(t, apiErr.Message)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantContentType, rec.Header().Get(echo.HeaderContentType))
			assert.Equal(t, `attachment; filename="`+tt.wantFile+`"`, rec.Header().Get(echo.HeaderContentDisposition))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.NotZero(t, rec.Body.Len())
			}
		})
	}
}

func TestExportHandler_BodyTooLarge(t *testing.T) {
	handler := &ExportHandlerImpl{maxBody: int64(len(exportBody))}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "at the limit", body: exportBody, wantStatus: http.StatusOK},
		{name: "one byte over", body: exportBody + " ", wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/export?format=csv", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler.HandleExport(c)
			if err != nil {
				ErrorHandler(err, c)
			}
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusRequestEntityTooLarge {
				assert.JSONEq(t, `{"error":"Request Entity Too Large"}`, rec.Body.String())
			}
		})
	}
}
