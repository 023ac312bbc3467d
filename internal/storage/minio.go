package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

// MinioStore talks to a MinIO server
type MinioStore struct {
	C         *minio.Client
	bucket    string
	publicURL string
}

// NewMinio connects to the server configured under minio.* and creates the
// bucket if it doesn't exist yet
func NewMinio(ctx context.Context) (*MinioStore, error) {
	endpoint := viper.GetString("minio.endpoint")
	secure := viper.GetBool("minio.use_ssl")
	bucket := viper.GetString("minio.bucket")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_key"), viper.GetString("minio.secret_key"), ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client, %w", err)
	}

	if err := ensureBucket(ctx, client, bucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket %s, %w", bucket, err)
	}

	publicURL := viper.GetString("minio.public_url")
	if publicURL == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &MinioStore{C: client, bucket: bucket, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

func (m *MinioStore) Bucket() string { return m.bucket }

func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error) {
	info, err := m.C.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object, %w", err)
	}

	return &Object{
		Key:    key,
		Bucket: m.bucket,
		URL:    m.publicURL + "/" + key,
		Size:   info.Size,
	}, nil
}

func (m *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.C.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object, %w", err)
	}

	// GetObject is lazy, Stat surfaces a missing key
	if _, err := obj.Stat(); err != nil {
		obj.Close()

		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}

		return nil, fmt.Errorf("failed to stat object, %w", err)
	}

	return obj, nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.C.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object, %w", err)
	}

	return nil
}

func (m *MinioStore) PresignGet(ctx context.Context, key string, ttl time.Duration, filename string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", attachment(filename))

	u, err := m.C.PresignedGetObject(ctx, m.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign object, %w", err)
	}

	return u.String(), nil
}
