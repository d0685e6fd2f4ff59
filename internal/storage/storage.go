package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// PublicPrefix is the URL path under which stored files are served
const PublicPrefix = "/uploads"

// ImagesDir is the subdirectory holding blog images and profile pictures
const ImagesDir = "images"

// ErrForeignReference is returned for references this storage does not own,
// such as the placeholder profile picture URL
var ErrForeignReference = errors.New("reference is not a local upload")

// StoredFile describes a file found on disk
type StoredFile struct {
	Reference string
	ModTime   time.Time
}

// localStorage stores uploads on the local filesystem and hands out
// references of the form /uploads/<dir>/<file>
type localStorage struct {
	basePath string
}

// NewLocalStorage creates the upload directory tree and returns a storage rooted at basePath
func NewLocalStorage(basePath string) (*localStorage, error) {
	if err := os.MkdirAll(filepath.Join(basePath, ImagesDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &localStorage{
		basePath: filepath.Clean(basePath),
	}, nil
}

// BasePath returns the root directory of the storage
func (s *localStorage) BasePath() string {
	return s.basePath
}

// Save writes the content of r into dir under a freshly generated name and returns its reference
func (s *localStorage) Save(r io.Reader, dir, extension string) (string, error) {
	filename := GenerateFileName(extension)
	fullPath := filepath.Join(s.basePath, dir, filename)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return path.Join(PublicPrefix, filepath.ToSlash(dir), filename), nil
}

// Delete removes the file behind reference. A file that is already gone is not an error.
func (s *localStorage) Delete(reference string) error {
	fullPath, err := s.resolve(reference)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List returns every stored file with its modification time
func (s *localStorage) List() ([]StoredFile, error) {
	var files []StoredFile
	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		files = append(files, StoredFile{
			Reference: path.Join(PublicPrefix, filepath.ToSlash(rel)),
			ModTime:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// IsLocal reports whether reference points into this storage
func IsLocal(reference string) bool {
	return strings.HasPrefix(reference, PublicPrefix+"/")
}

// resolve maps a reference to a path inside basePath, refusing anything that escapes it
func (s *localStorage) resolve(reference string) (string, error) {
	if !IsLocal(reference) {
		return "", ErrForeignReference
	}

	rel := path.Clean(strings.TrimPrefix(reference, PublicPrefix+"/"))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("invalid reference %q: %w", reference, ErrForeignReference)
	}

	return filepath.Join(s.basePath, filepath.FromSlash(rel)), nil
}
