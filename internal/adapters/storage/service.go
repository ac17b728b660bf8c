// Package storage provides a domain-agnostic interface for S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// StorageService defines the object storage operations the application uses.
type StorageService interface {
	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// PutObject stores reader under key, replacing any existing object.
	PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error

	// DownloadFile downloads an object directly from storage.
	// The caller is responsible for closing the returned io.ReadCloser.
	DownloadFile(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// ListObjects lists the objects below prefix in key order.
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}
