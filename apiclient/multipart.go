package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// File is one part of a multipart upload.
type File struct {
	Field    string // Form field name, e.g. "image"
	Filename string
	Content  io.Reader
}

// NewMultipartRequest encodes fields and files as multipart/form-data.
func NewMultipartRequest(method, path string, fields map[string]string, files []File) (*Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("[NewMultipartRequest] field %s: %w", name, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("[NewMultipartRequest] file %s: %w", f.Filename, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("[NewMultipartRequest] copy %s: %w", f.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("[NewMultipartRequest] close: %w", err)
	}

	r := NewRequest(method, path)
	r.Body = buf.Bytes()
	r.ContentType = w.FormDataContentType()
	return r, nil
}
