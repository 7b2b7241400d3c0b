// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import "github.com/labstack/echo/v4"

// UploadHandler relays uploads to the extraction service
type UploadHandler interface {
	HandleUpload(c echo.Context) error
}

// ExportHandler renders results as downloadable files
type ExportHandler interface {
	HandleExport(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
