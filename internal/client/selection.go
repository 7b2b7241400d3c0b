package client

import (
	"fmt"

	"github.com/sof-extractor/backend/internal/models"
)

// Selection is the ordered list of files waiting to be uploaded.
// It is not safe for concurrent use; Session guards its own selection.
type Selection struct {
	policy Policy
	files  []models.UploadFile
}

// NewSelection returns an empty selection filtered by policy.
func NewSelection(policy Policy) *Selection {
	return &Selection{policy: policy}
}

// Add appends every accepted file in order and returns the rejected ones.
func (s *Selection) Add(files ...models.UploadFile) (rejected []models.UploadFile) {
	for _, f := range files {
		if !s.policy.Accepts(f.ContentType) {
			rejected = append(rejected, f)
			continue
		}
		s.files = append(s.files, f)
	}
	return rejected
}

// Remove drops the file at index i.
func (s *Selection) Remove(i int) error {
	if i < 0 || i >= len(s.files) {
		return fmt.Errorf("selection: index %d out of range [0,%d)", i, len(s.files))
	}
	s.files = append(s.files[:i], s.files[i+1:]...)
	return nil
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.files = nil
}

// Files returns a copy of the pending files.
func (s *Selection) Files() []models.UploadFile {
	out := make([]models.UploadFile, len(s.files))
	copy(out, s.files)
	return out
}

// Len returns the number of pending files.
func (s *Selection) Len() int {
	return len(s.files)
}

// TotalSize returns the combined size of the pending files in bytes.
func (s *Selection) TotalSize() int64 {
	var n int64
	for _, f := range s.files {
		n += f.Size()
	}
	return n
}
