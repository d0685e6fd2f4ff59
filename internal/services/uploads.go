package services

import (
	"context"
	"fmt"
	"io"

	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
	"github.com/sasikola/mb-server/internal/storage"
)

// FileStorage is the interface that wraps the write side of the upload storage
type FileStorage interface {
	// Method Save writes the content of "r" into the "dir" subdirectory under a generated name ending with "extension".
	//
	// Returns the public reference of the stored file.
	// If some error occurs during write, no file is left behind and the error will be returned together with an empty string.
	Save(r io.Reader, dir, extension string) (string, error)
}

// Cleaner is the interface that wraps the dispatch of stored file deletes
type Cleaner interface {
	// Method Dispatch hands "references" over for deletion and returns immediately.
	//
	// Failures are never reported back to the caller. References not owned by the local storage are ignored.
	Dispatch(ctx context.Context, references ...string)
}

// validateImages checks every upload before any of them is written
func validateImages(images []*models.Upload, maxSize int64) ([]string, error) {
	extensions := make([]string, len(images))
	for i, image := range images {
		if image == nil {
			return nil, fmt.Errorf("empty image upload: %w", apperrors.ErrValidation)
		}
		if image.Size > maxSize {
			return nil, fmt.Errorf("image %q exceeds the %d bytes limit: %w", image.Filename, maxSize, apperrors.ErrValidation)
		}
		ext, ok := storage.ImageExtension(image.ContentType, image.Filename)
		if !ok {
			return nil, fmt.Errorf("file %q is not a supported image: %w", image.Filename, apperrors.ErrValidation)
		}
		extensions[i] = ext
	}
	return extensions, nil
}

// saveImages writes validated uploads to storage.
// On failure the files already written are handed to the cleaner.
func saveImages(ctx context.Context, store FileStorage, cleaner Cleaner, images []*models.Upload, extensions []string) ([]string, error) {
	references := make([]string, 0, len(images))
	for i, image := range images {
		reference, err := saveImage(store, image, extensions[i])
		if err != nil {
			cleaner.Dispatch(ctx, references...)
			return nil, err
		}
		references = append(references, reference)
	}
	return references, nil
}

func saveImage(store FileStorage, image *models.Upload, extension string) (string, error) {
	file, err := image.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	reference, err := store.Save(file, storage.ImagesDir, extension)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return reference, nil
}
