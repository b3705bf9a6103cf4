package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

const objectStoreTimeout = 30 * time.Second

// MinIOStore keeps files as objects under an optional key prefix of one bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIOStore constructs an adapter. prefix may be empty.
func NewMinIOStore(client *minio.Client, bucket, prefix string) *MinIOStore {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &MinIOStore{client: client, bucket: bucket, prefix: prefix}
}

// Bucket returns the target bucket name.
func (s *MinIOStore) Bucket() string {
	return s.bucket
}

// ObjectName maps a stored name to its object key.
func (s *MinIOStore) ObjectName(name string) string {
	return s.prefix + name
}

// Put refuses existing keys with a stat first. The check is not atomic; the
// name generator already keeps concurrent names apart.
func (s *MinIOStore) Put(ctx context.Context, name string, content io.Reader, size int64, contentType string) (StoredFile, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, objectStoreTimeout)
	defer cancel()

	if _, err := s.Stat(ctx, name); err == nil {
		return StoredFile{}, ErrFileExists
	} else if !errors.Is(err, ErrFileNotFound) {
		return StoredFile{}, err
	}

	if contentType == "" {
		contentType = contentTypeByName(name)
	}
	info, err := s.client.PutObject(ctx, s.bucket, s.ObjectName(name), content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return StoredFile{}, fmt.Errorf("store object: %w", err)
	}

	stored := StoredFile{
		Name:        name,
		Size:        info.Size,
		ContentType: contentType,
		CreatedAt:   info.LastModified,
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	return stored, nil
}

// Open returns a seekable object reader; the caller closes it.
func (s *MinIOStore) Open(ctx context.Context, name string) (StoredFile, io.ReadSeekCloser, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, nil, ErrFileNotFound
	}

	object, err := s.client.GetObject(ctx, s.bucket, s.ObjectName(name), minio.GetObjectOptions{})
	if err != nil {
		return StoredFile{}, nil, translateObjectError(err)
	}
	info, err := object.Stat()
	if err != nil {
		object.Close()
		return StoredFile{}, nil, translateObjectError(err)
	}
	return s.fromObjectInfo(info), object, nil
}

func (s *MinIOStore) Stat(ctx context.Context, name string) (StoredFile, error) {
	if err := ValidateName(name); err != nil {
		return StoredFile{}, ErrFileNotFound
	}

	info, err := s.client.StatObject(ctx, s.bucket, s.ObjectName(name), minio.StatObjectOptions{})
	if err != nil {
		return StoredFile{}, translateObjectError(err)
	}
	return s.fromObjectInfo(info), nil
}

// List returns the objects directly under the prefix.
func (s *MinIOStore) List(ctx context.Context) ([]StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, objectStoreTimeout)
	defer cancel()

	var files []StoredFile
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		// skip "directories" of deeper prefixes
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		files = append(files, s.fromObjectInfo(obj))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Delete stats first because RemoveObject succeeds on missing keys.
func (s *MinIOStore) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, objectStoreTimeout)
	defer cancel()

	if _, err := s.Stat(ctx, name); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, s.ObjectName(name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *MinIOStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func (s *MinIOStore) fromObjectInfo(info minio.ObjectInfo) StoredFile {
	name := strings.TrimPrefix(info.Key, s.prefix)
	contentType := info.ContentType
	if contentType == "" {
		contentType = contentTypeByName(name)
	}
	return StoredFile{
		Name:        name,
		Size:        info.Size,
		ContentType: contentType,
		CreatedAt:   info.LastModified,
	}
}

func translateObjectError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return ErrFileNotFound
	}
	return err
}
