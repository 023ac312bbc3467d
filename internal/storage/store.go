// Package storage holds the clients for the object stores file bytes live in
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// Object describes a stored blob
type Object struct {
	Key    string
	Bucket string
	URL    string
	Size   int64
}

// ObjectStore is the subset of an S3 compatible store the service needs
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)
	// Get returns the object body, the caller closes it
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time limited download URL that saves as filename
	PresignGet(ctx context.Context, key string, ttl time.Duration, filename string) (string, error)
}

func attachment(filename string) string {
	if filename == "" {
		return "attachment"
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
