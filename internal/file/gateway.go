package file

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// Gateway wraps the object-storage presigned-URL protocol. It issues
// time-limited upload and download URLs and deletes objects; callers decide
// about retries.
type Gateway struct {
	client *minio.Client
	bucket string
}

// NewGateway constructs a Gateway bound to a single bucket.
func NewGateway(client *minio.Client, bucket string) *Gateway {
	return &Gateway{client: client, bucket: bucket}
}

// PresignUpload returns a time-limited URL authorizing a PUT of the given
// key and content type.
func (g *Gateway) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	headers := http.Header{}
	headers.Set("Content-Type", contentType)

	u, err := g.client.PresignHeader(ctx, http.MethodPut, g.bucket, key, ttl, url.Values{}, headers)
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return u.String(), nil
}

// PresignDownload returns a time-limited URL authorizing a GET of the key.
func (g *Gateway) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := g.client.PresignedGetObject(ctx, g.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return u.String(), nil
}

// Remove deletes the object under key.
func (g *Gateway) Remove(ctx context.Context, key string) error {
	if err := g.client.RemoveObject(ctx, g.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
