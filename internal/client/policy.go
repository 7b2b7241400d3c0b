// Package client is the upload page as a Go library: it collects SoF
// documents, submits them to the relay and renders what comes back.
package client

import (
	"strings"

	"github.com/sof-extractor/backend/internal/models"
)

var documentSubstrings = []string{"pdf", "word", "document"}

// Policy decides which declared content types may be uploaded.
type Policy struct {
	AllowedTypes []string
	// MatchDocumentSubstrings also admits any type mentioning pdf, word or
	// document, e.g. application/x-pdf or vendor Word variants.
	MatchDocumentSubstrings bool
}

// DefaultPolicy accepts exactly the known SoF document types.
func DefaultPolicy() Policy {
	return Policy{AllowedTypes: models.AcceptedContentTypes}
}

// LenientPolicy is DefaultPolicy plus substring matching.
func LenientPolicy() Policy {
	p := DefaultPolicy()
	p.MatchDocumentSubstrings = true
	return p
}

// Accepts reports whether a file declared as contentType passes the policy.
// Parameters such as charset are ignored.
func (p Policy) Accepts(contentType string) bool {
	mt := models.MediaType(contentType)
	if mt == "" {
		return false
	}
	for _, allowed := range p.AllowedTypes {
		if mt == allowed {
			return true
		}
	}
	if p.MatchDocumentSubstrings {
		for _, s := range documentSubstrings {
			if strings.Contains(mt, s) {
				return true
			}
		}
	}
	return false
}
