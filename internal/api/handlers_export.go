// handlers_export.go - Result export handler
package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sof-extractor/backend/internal/export"
)

const maxExportBody = 16 << 20

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	maxBody int64
}

// NewExportHandler creates a new export handler
func NewExportHandler() ExportHandler {
	return &ExportHandlerImpl{maxBody: maxExportBody}
}

// HandleExport turns a results document into a download in the format given
// by the "format" query parameter (json, csv or msgpack).
func (h *ExportHandlerImpl) HandleExport(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return NewBadRequestError(err.Error())
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, h.maxBody+1))
	if err != nil {
		return NewBadRequestError("failed to read request body")
	}
	if int64(len(raw)) > h.maxBody {
		return echo.ErrStatusRequestEntityTooLarge
	}

	results, err := export.DecodeResults(raw)
	if err != nil {
		return NewBadRequestError(err.Error())
	}

	data, err := export.Render(format, results)
	if err != nil {
		return NewInternalError("failed to render export", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", format.FileName()))
	return c.Blob(http.StatusOK, format.ContentType(), data)
}
