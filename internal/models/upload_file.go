package models

// UploadFile is a file submitted for extraction, held in memory for the
// lifetime of a single request.
type UploadFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"` // as declared by the sender
	Data        []byte `json:"-"`
}

// Size returns the file size in bytes.
func (f UploadFile) Size() int64 {
	return int64(len(f.Data))
}
