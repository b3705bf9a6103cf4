package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/bijay-develops/single-file-uploader/internal/metrics"
)

const (
	defaultContentType = "application/octet-stream"
	// maxNameAttempts bounds retries when a store reports a taken name,
	// which only happens if the clock went back across a restart.
	maxNameAttempts = 5
)

// Service manages the stored file lifecycle on top of a Store.
type Service struct {
	store Store
	names *NameGenerator
}

// NewService constructs a file service.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		names: NewNameGenerator(),
	}
}

// Upload stores the multipart file under a freshly generated name.
func (s *Service) Upload(ctx context.Context, fileHeader *multipart.FileHeader) (StoredFile, error) {
	if fileHeader == nil {
		return StoredFile{}, fmt.Errorf("missing file payload")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("open upload file: %w", err)
	}
	defer src.Close()

	return s.Save(ctx, fileHeader.Filename, src, fileHeader.Size, detectContentType(fileHeader))
}

// Save stores content read from src. src is rewound between naming attempts
// when it supports seeking; otherwise a name collision is returned as is.
func (s *Service) Save(ctx context.Context, original string, src io.Reader, size int64, contentType string) (StoredFile, error) {
	for attempt := 1; ; attempt++ {
		name := s.names.Next(original)
		stored, err := s.store.Put(ctx, name, src, size, contentType)
		if err == nil {
			metrics.RecordUpload(stored.Size)
			return stored, nil
		}
		if !errors.Is(err, ErrFileExists) || attempt >= maxNameAttempts {
			return StoredFile{}, err
		}
		seeker, ok := src.(io.Seeker)
		if !ok {
			return StoredFile{}, err
		}
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return StoredFile{}, fmt.Errorf("rewind upload: %w", err)
		}
	}
}

// List returns stored names in ascending order.
func (s *Service) List(ctx context.Context) ([]string, error) {
	files, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names, nil
}

// Stat returns metadata for a stored file.
func (s *Service) Stat(ctx context.Context, name string) (StoredFile, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, ErrFileNotFound
	}
	return s.store.Stat(ctx, name)
}

// Open returns metadata and a reader; the caller closes the reader.
func (s *Service) Open(ctx context.Context, name string) (StoredFile, io.ReadSeekCloser, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, nil, ErrFileNotFound
	}
	return s.store.Open(ctx, name)
}

// Delete removes the file. Deleting an absent file yields ErrFileNotFound.
func (s *Service) Delete(ctx context.Context, name string) error {
	err := s.deleteFile(ctx, name)
	switch {
	case err == nil:
		metrics.RecordDelete(metrics.DeleteDeleted)
	case errors.Is(err, ErrFileNotFound):
		metrics.RecordDelete(metrics.DeleteNotFound)
	default:
		metrics.RecordDelete(metrics.DeleteError)
	}
	return err
}

func (s *Service) deleteFile(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return ErrFileNotFound
	}
	return s.store.Delete(ctx, name)
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	if fileHeader == nil {
		return defaultContentType
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" {
		return contentType
	}
	return defaultContentType
}
