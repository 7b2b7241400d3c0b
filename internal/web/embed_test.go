package web

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasEmbeddedFiles(t *testing.T) {
	assert.True(t, HasEmbeddedFiles())

	staticFS, err := GetFileSystem()
	require.NoError(t, err)
	data, err := fs.ReadFile(staticFS, "index.html")
	require.NoError(t, err)
	assert.Contains(t, string(data), `action="/api/upload"`)
	assert.Contains(t, string(data), `name="files"`)
}

func TestRegisterFS(t *testing.T) {
	staticFS := fstest.MapFS{
		"index.html":    {Data: []byte("<html>index</html>")},
		"assets/app.js": {Data: []byte("console.log('sof')")},
	}

	e := echo.New()
	e.GET("/api/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	RegisterFS(e, staticFS)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, "<html>index</html>"},
		{"/upload", http.StatusOK, "<html>index</html>"},
		{"/assets", http.StatusOK, "<html>index</html>"},
		{"/assets/app.js", http.StatusOK, "console.log('sof')"},
		{"/api/health", http.StatusOK, "ok"},
		{"/api/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRegisterStaticRoutes(t *testing.T) {
	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SoF Event Extractor")
}
