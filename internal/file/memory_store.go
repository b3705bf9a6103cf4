package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps files in process memory. Contents vanish on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	meta    StoredFile
	content []byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Put(ctx context.Context, name string, content io.Reader, _ int64, contentType string) (StoredFile, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return StoredFile{}, fmt.Errorf("read content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}
	if contentType == "" {
		contentType = contentTypeByName(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[name]; exists {
		return StoredFile{}, ErrFileExists
	}
	meta := StoredFile{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		CreatedAt:   s.now(),
	}
	s.files[name] = memoryEntry{meta: meta, content: data}
	return meta, nil
}

func (s *MemoryStore) Open(_ context.Context, name string) (StoredFile, io.ReadSeekCloser, error) {
	s.mu.RLock()
	entry, ok := s.files[name]
	s.mu.RUnlock()
	if !ok {
		return StoredFile{}, nil, ErrFileNotFound
	}
	return entry.meta, readSeekNopCloser{bytes.NewReader(entry.content)}, nil
}

func (s *MemoryStore) Stat(_ context.Context, name string) (StoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.files[name]
	if !ok {
		return StoredFile{}, ErrFileNotFound
	}
	return entry.meta, nil
}

func (s *MemoryStore) List(_ context.Context) ([]StoredFile, error) {
	s.mu.RLock()
	files := make([]StoredFile, 0, len(s.files))
	for _, entry := range s.files {
		files = append(files, entry.meta)
	}
	s.mu.RUnlock()

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; !ok {
		return ErrFileNotFound
	}
	delete(s.files, name)
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
