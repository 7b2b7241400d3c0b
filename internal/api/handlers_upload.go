// handlers_upload.go - Upload relay handler
package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/sof-extractor/backend/internal/formdata"
	"github.com/sof-extractor/backend/internal/processor"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	processor processor.Processor
	log       *logrus.Logger
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(p processor.Processor, log *logrus.Logger) UploadHandler {
	return &UploadHandlerImpl{
		processor: p,
		log:       log,
	}
}

// HandleUpload forwards the files under "files" (or "files[]") to the
// extraction service and relays its JSON body unchanged.
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	headers, err := uploadedFiles(c)
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		return NewNoFilesError()
	}

	files, err := formdata.FromFileHeaders(headers)
	if err != nil {
		return NewInternalError("failed to read uploaded files", err)
	}

	entry := h.log.WithFields(logrus.Fields{
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"files":      len(files),
	})

	start := time.Now()
	body, err := h.processor.Process(c.Request().Context(), files)
	if err != nil {
		entry.WithError(err).Warn("processing failed")
		return NewProcessingError(err)
	}

	entry.WithFields(logrus.Fields{
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	}).Info("files processed")

	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}

// uploadedFiles returns the file headers sent under "files", falling back to
// "files[]". A body that is not multipart carries no files.
func uploadedFiles(c echo.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, nil
	}

	headers := form.File[formdata.FieldFiles]
	if len(headers) == 0 {
		headers = form.File[formdata.FieldFiles+"[]"]
	}
	return headers, nil
}
