package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// PostgresStore keeps file contents in the stored_files table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a store over an already migrated database.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Put(ctx context.Context, name string, content io.Reader, _ int64, contentType string) (StoredFile, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return StoredFile{}, fmt.Errorf("read content: %w", err)
	}
	if contentType == "" {
		contentType = contentTypeByName(name)
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO stored_files (name, content, size_bytes, content_type)
VALUES ($1, $2, $3, $4)
RETURNING name, size_bytes, content_type, created_at;`

	var stored StoredFile
	err = s.pool.QueryRow(ctx, query, name, data, int64(len(data)), contentType).
		Scan(&stored.Name, &stored.Size, &stored.ContentType, &stored.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return StoredFile{}, ErrFileExists
		}
		return StoredFile{}, fmt.Errorf("insert stored file: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) Open(ctx context.Context, name string) (StoredFile, io.ReadSeekCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT name, size_bytes, content_type, created_at, content
FROM stored_files
WHERE name = $1;`

	var (
		stored  StoredFile
		content []byte
	)
	err := s.pool.QueryRow(ctx, query, name).
		Scan(&stored.Name, &stored.Size, &stored.ContentType, &stored.CreatedAt, &content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredFile{}, nil, ErrFileNotFound
		}
		return StoredFile{}, nil, fmt.Errorf("get stored file: %w", err)
	}
	return stored, readSeekNopCloser{bytes.NewReader(content)}, nil
}

func (s *PostgresStore) Stat(ctx context.Context, name string) (StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT name, size_bytes, content_type, created_at
FROM stored_files
WHERE name = $1;`

	var stored StoredFile
	err := s.pool.QueryRow(ctx, query, name).
		Scan(&stored.Name, &stored.Size, &stored.ContentType, &stored.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredFile{}, ErrFileNotFound
		}
		return StoredFile{}, fmt.Errorf("stat stored file: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT name, size_bytes, content_type, created_at
FROM stored_files
ORDER BY name;`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stored files: %w", err)
	}
	defer rows.Close()

	files := []StoredFile{}
	for rows.Next() {
		var stored StoredFile
		if err := rows.Scan(&stored.Name, &stored.Size, &stored.ContentType, &stored.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stored file: %w", err)
		}
		files = append(files, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stored files: %w", err)
	}
	return files, nil
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM stored_files WHERE name = $1;`, name)
	if err != nil {
		return fmt.Errorf("delete stored file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
