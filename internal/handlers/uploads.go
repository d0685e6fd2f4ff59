package handlers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/sasikola/mb-server/internal/models"
)

const (
	// MaxUploadParts is the number of files accepted in one multipart field
	MaxUploadParts = 10
	// maxMultipartMemory is the part of a multipart body kept in memory, the rest spills to temp files
	maxMultipartMemory = 8 << 20
)

var errTooManyFiles = errors.New("too many files")

// isMultipart reports whether the request carries a multipart/form-data body
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart parses the form once; repeated calls are no-ops
func parseMultipart(r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	return r.ParseMultipartForm(maxMultipartMemory)
}

// formFiles converts the files of one form field into uploads
func formFiles(r *http.Request, field string) ([]*models.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) > MaxUploadParts {
		return nil, errTooManyFiles
	}

	uploads := make([]*models.Upload, 0, len(headers))
	for _, header := range headers {
		uploads = append(uploads, newUpload(header))
	}
	return uploads, nil
}

// formFile returns the single upload of a field, or nil when the field is absent
func formFile(r *http.Request, field string) *models.Upload {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 || headers[0].Size == 0 {
		return nil
	}
	return newUpload(headers[0])
}

// formValue returns a pointer to the first value of a field, or nil when the field is absent
func formValue(r *http.Request, fields ...string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	for _, field := range fields {
		if values, ok := r.MultipartForm.Value[field]; ok && len(values) > 0 {
			return &values[0]
		}
	}
	return nil
}

func newUpload(header *multipart.FileHeader) *models.Upload {
	return &models.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			file, err := header.Open()
			if err != nil {
				return nil, err
			}
			return file, nil
		},
	}
}

func valueOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
