package presigned

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// S3 limits presigned URLs to between one second and seven days.
const (
	minTTL = time.Second
	maxTTL = 7 * 24 * time.Hour
)

// urlSigner is the subset of *minio.Client used here.
type urlSigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Service issues time-limited download URLs for stored files.
type Service struct {
	signer     urlSigner
	bucket     string
	objectName func(name string) string
	ttl        time.Duration
}

// NewService builds a presigner. objectName maps a stored name to its object key;
// nil means the name is the key.
func NewService(signer urlSigner, bucket string, objectName func(string) string, ttl time.Duration) *Service {
	if objectName == nil {
		objectName = func(name string) string { return name }
	}
	return &Service{
		signer:     signer,
		bucket:     bucket,
		objectName: objectName,
		ttl:        clampTTL(ttl),
	}
}

// TTL returns the effective URL lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// PresignedGetURL returns a GET URL that serves the file inline under its stored name.
func (s *Service) PresignedGetURL(ctx context.Context, name string) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", name))

	u, err := s.signer.PresignedGetObject(ctx, s.bucket, s.objectName(name), s.ttl, reqParams)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", name, err)
	}
	return u.String(), nil
}

func clampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl < minTTL:
		return minTTL
	case ttl > maxTTL:
		return maxTTL
	}
	return ttl
}
