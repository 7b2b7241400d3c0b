package models

import (
	"mime"
	"path/filepath"
	"strings"
)

// Content types accepted for SoF documents.
const (
	ContentTypePDF     = "application/pdf"
	ContentTypeDOC     = "application/msword"
	ContentTypeDOCX    = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeText    = "text/plain"
	ContentTypeUnknown = "application/octet-stream"
)

// AcceptedContentTypes is the default upload allow-list.
var AcceptedContentTypes = []string{
	ContentTypePDF,
	ContentTypeDOC,
	ContentTypeDOCX,
	ContentTypeText,
}

// AcceptedExtensions mirrors AcceptedContentTypes for file pickers.
var AcceptedExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

var extensionTypes = map[string]string{
	".pdf":  ContentTypePDF,
	".doc":  ContentTypeDOC,
	".docx": ContentTypeDOCX,
	".txt":  ContentTypeText,
}

// ContentTypeForName derives a content type from a file name. Known SoF
// extensions are resolved without consulting the platform MIME table, which
// often lacks the Word types.
func ContentTypeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ContentTypeUnknown
	}
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return ContentTypeUnknown
}

// MediaType strips parameters such as charset from a content type and
// lower-cases it. Unparseable values are returned trimmed and lower-cased.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
