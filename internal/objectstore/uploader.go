// Package objectstore uploads run artifacts to Google Cloud Storage: the
// raw snapshot archive and the gzip NDJSON load files the warehouse
// ingests by reference.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// Uploader writes objects into a single bucket. It assumes Application
// Default Credentials are configured.
type Uploader struct {
	client *storage.Client
	bucket string
}

// NewUploader creates an uploader with a shared storage client.
func NewUploader(ctx context.Context, bucket string) (*Uploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("objectstore: creating storage client: %w", err)
	}
	return &Uploader{client: client, bucket: bucket}, nil
}

// Close closes the storage client.
func (u *Uploader) Close() error {
	if u.client != nil {
		return u.client.Close()
	}
	return nil
}

// Upload writes data under the given object name with a per-upload
// timeout.
func (u *Uploader) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("objectstore: writing %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("objectstore: finalizing %s: %w", objectName, err)
	}

	return nil
}

// URI returns the gs:// URI of an object in the uploader's bucket.
func (u *Uploader) URI(objectName string) string {
	return fmt.Sprintf("gs://%s/%s", u.bucket, objectName)
}
