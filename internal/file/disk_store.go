package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// tempFilePrefix marks in-progress uploads; they are hidden from List.
const tempFilePrefix = ".upload-"

// DiskStore keeps files in a single local directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir when missing and returns a store rooted there.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Put writes to a hidden temp file, then publishes it with a hard link so a
// reader never sees a partial file and an existing name is never replaced.
func (s *DiskStore) Put(ctx context.Context, name string, content io.Reader, _ int64, contentType string) (StoredFile, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, err
	}
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}

	tmp, err := os.CreateTemp(s.dir, tempFilePrefix+"*")
	if err != nil {
		return StoredFile{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		return StoredFile{}, fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return StoredFile{}, fmt.Errorf("close file: %w", err)
	}

	target := filepath.Join(s.dir, name)
	if err := os.Link(tmpName, target); err != nil {
		if errors.Is(err, os.ErrExist) {
			return StoredFile{}, ErrFileExists
		}
		return StoredFile{}, fmt.Errorf("publish file: %w", err)
	}

	stored, err := s.Stat(ctx, name)
	if err != nil {
		return StoredFile{}, err
	}
	if contentType != "" {
		stored.ContentType = contentType
	}
	return stored, nil
}

// Open returns the file positioned at its start.
func (s *DiskStore) Open(_ context.Context, name string) (StoredFile, io.ReadSeekCloser, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, nil, ErrFileNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return StoredFile{}, nil, translateFSError(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return StoredFile{}, nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return StoredFile{}, nil, ErrFileNotFound
	}
	return fromFileInfo(info), f, nil
}

// Stat reports metadata without opening the file.
func (s *DiskStore) Stat(_ context.Context, name string) (StoredFile, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, ErrFileNotFound
	}

	info, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		return StoredFile{}, translateFSError(err)
	}
	if !info.Mode().IsRegular() {
		return StoredFile{}, ErrFileNotFound
	}
	return fromFileInfo(info), nil
}

// List reads the directory. A missing or unreadable directory is an error.
func (s *DiskStore) List(_ context.Context) ([]StoredFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage directory: %w", err)
	}

	files := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), tempFilePrefix) || entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		files = append(files, fromFileInfo(info))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Delete removes the named file.
func (s *DiskStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return ErrFileNotFound
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return translateFSError(err)
	}
	return nil
}

// Ping checks that the directory is still there.
func (s *DiskStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func fromFileInfo(info os.FileInfo) StoredFile {
	return StoredFile{
		Name:        info.Name(),
		Size:        info.Size(),
		ContentType: contentTypeByName(info.Name()),
		CreatedAt:   info.ModTime(),
	}
}

func contentTypeByName(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}

func translateFSError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return ErrFileNotFound
	}
	return err
}
