package models

import "io"

// Upload is a file received from a multipart request that has not been stored yet
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}
