package file

import (
	"context"
	"io"
)

// Store is a flat namespace of immutable files.
//
// Put must never overwrite: it returns ErrFileExists when name is taken.
// Open, Stat and Delete return ErrFileNotFound for unknown names.
type Store interface {
	Put(ctx context.Context, name string, content io.Reader, size int64, contentType string) (StoredFile, error)
	Open(ctx context.Context, name string) (StoredFile, io.ReadSeekCloser, error)
	Stat(ctx context.Context, name string) (StoredFile, error)
	List(ctx context.Context) ([]StoredFile, error)
	Delete(ctx context.Context, name string) error
	Ping(ctx context.Context) error
}

// readSeekNopCloser gives in-memory content the io.ReadSeekCloser shape.
type readSeekNopCloser struct {
	io.ReadSeeker
}

func (readSeekNopCloser) Close() error { return nil }
