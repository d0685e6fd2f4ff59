package storage

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GenerateFileName generates a new file name based on the file extension
// It creates a UUID-based filename with the provided extension
func GenerateFileName(extension string) string {
	newUUID := uuid.New().String()
	// Ensure extension starts with a dot if it doesn't already
	if extension != "" && extension[0] != '.' {
		return newUUID + "." + extension
	}
	return newUUID + extension
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// ImageExtension infers the extension of an uploaded image from its content type,
// falling back to the client file name. ok is false when the upload is not an image.
func ImageExtension(contentType, filename string) (string, bool) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ext, ok := imageExtensions[mediaType]; ok {
		return ext, true
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	for _, known := range imageExtensions {
		if ext == known {
			return ext, true
		}
	}
	return "", false
}
