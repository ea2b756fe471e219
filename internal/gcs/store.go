package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finance-ingest/internal/blob"
)

// Store is the Google Cloud Storage implementation of blob.Store.
// It holds a shared storage client for a single bucket.
// It assumes Application Default Credentials are configured.
type Store struct {
	client *storage.Client
	bucket string
}

// NewStore creates a Store for bucketName with a shared storage client.
func NewStore(ctx context.Context, bucketName string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewStore: create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucketName}, nil
}

// Close closes the storage client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Get downloads the object at fullPath.
func (s *Store) Get(ctx context.Context, fullPath string) ([]byte, error) {
	rc, err := s.client.Bucket(s.bucket).Object(fullPath).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("Get: gs://%s/%s: %w", s.bucket, fullPath, blob.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: reading object gs://%s/%s: %w", s.bucket, fullPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Get: reading bytes: %w", err)
	}

	return data, nil
}

// Put uploads data to fullPath.
func (s *Store) Put(ctx context.Context, fullPath string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(fullPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("Put: write gs://%s/%s: %w", s.bucket, fullPath, err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("Put: finalize upload: %w", err)
	}

	return nil
}

// URI returns the gs:// URI of fullPath in this bucket.
func (s *Store) URI(fullPath string) string {
	return "gs://" + s.bucket + "/" + fullPath
}

var _ blob.Store = (*Store)(nil)
