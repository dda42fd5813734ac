// Package upload stores multipart file uploads on local disk under
// generated names, enforcing the platform's extension and size rules.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"gamehub-api/pkg/uid"

	log "github.com/sirupsen/logrus"
)

// Validation errors reported back to the submitting user.
var (
	ErrExtension = errors.New("file has a disallowed extension")
	ErrTooLarge  = errors.New("file exceeds the size limit")
)

// Kind selects the validation rules and target subdirectory for a file.
type Kind string

const (
	// KindGame is the playable HTML file: .html only, 5 MiB ceiling.
	KindGame Kind = "game"
	// KindThumbnail is a game preview image.
	KindThumbnail Kind = "thumbnail"
	// KindAvatar is a profile image.
	KindAvatar Kind = "avatar"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// subdirs mirrors the upload layout games/html, games/thumbnails, avatars.
var subdirs = map[Kind]string{
	KindGame:      filepath.Join("games", "html"),
	KindThumbnail: filepath.Join("games", "thumbnails"),
	KindAvatar:    "avatars",
}

// Saver validates and stores uploads under a base directory.
type Saver struct {
	dir          string
	maxGameSize  int64
	maxImageSize int64
}

// NewSaver creates a Saver and its directory layout.
func NewSaver(dir string, maxGameSize, maxImageSize int64) (*Saver, error) {
	for _, sub := range subdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir: %w", err)
		}
	}
	return &Saver{dir: dir, maxGameSize: maxGameSize, maxImageSize: maxImageSize}, nil
}

// Validate checks extension and size without storing anything.
func (s *Saver) Validate(header *multipart.FileHeader, kind Kind) error {
	ext := strings.ToLower(filepath.Ext(header.Filename))

	if kind == KindGame {
		if ext != ".html" {
			return ErrExtension
		}
		if header.Size > s.maxGameSize {
			return ErrTooLarge
		}
		return nil
	}

	if !imageExtensions[ext] {
		return ErrExtension
	}
	if header.Size > s.maxImageSize {
		return ErrTooLarge
	}
	return nil
}

// Save validates the upload and stores it under a generated name.
// Returns the path relative to the upload root.
func (s *Saver) Save(header *multipart.FileHeader, kind Kind) (string, error) {
	if err := s.Validate(header, kind); err != nil {
		return "", err
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	relPath := filepath.Join(subdirs[kind], uid.NewFileName(ext))

	dst, err := os.Create(filepath.Join(s.dir, relPath))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filepath.Join(s.dir, relPath))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filepath.ToSlash(relPath), nil
}

// Remove deletes a stored file by its relative path. Missing files are
// not an error; removal runs after the owning row is already gone.
func (s *Saver) Remove(relPath string) {
	if relPath == "" {
		return
	}
	path := filepath.Join(s.dir, filepath.FromSlash(relPath))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[Upload] Failed to remove %s: %v", relPath, err)
	}
}

// Dir returns the upload root for static file serving.
func (s *Saver) Dir() string {
	return s.dir
}
