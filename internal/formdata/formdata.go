// Package formdata encodes and decodes the multipart bodies exchanged between
// the upload page, the relay and the extraction service.
package formdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/sof-extractor/backend/internal/models"
)

// FieldFiles is the multipart field every uploaded file is sent under.
const FieldFiles = "files"

// ErrNoFiles is returned when there is nothing to encode.
var ErrNoFiles = errors.New("no files to upload")

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode builds a multipart body with one part per file, all named field.
// It returns the body and the Content-Type header carrying the boundary.
func Encode(field string, files []models.UploadFile) ([]byte, string, error) {
	if len(files) == 0 {
		return nil, "", ErrNoFiles
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for i, f := range files {
		contentType := f.ContentType
		if strings.TrimSpace(contentType) == "" {
			contentType = models.ContentTypeForName(f.Name)
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating part %d: %w", i, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("writing part %d: %w", i, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// FromFileHeaders reads parsed multipart file headers into memory, in order.
func FromFileHeaders(headers []*multipart.FileHeader) ([]models.UploadFile, error) {
	files := make([]models.UploadFile, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
		}

		files = append(files, models.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

// Part is one decoded file part and the field it was sent under.
type Part struct {
	FieldName string
	models.UploadFile
}

// Decode reads every file part of a multipart body, in order. Non-file
// fields are skipped.
func Decode(r io.Reader, boundary string) ([]Part, error) {
	mr := multipart.NewReader(r, boundary)
	var parts []Part
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading part: %w", err)
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", part.FileName(), err)
		}
		parts = append(parts, Part{
			FieldName: part.FormName(),
			UploadFile: models.UploadFile{
				Name:        part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			},
		})
	}
	return parts, nil
}
