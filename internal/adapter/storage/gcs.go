package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

// GCSStore serves gs://bucket/object locations from Google Cloud Storage.
type GCSStore struct {
	service *gcs.Service
}

// NewGCSStore creates a GCSStore. An empty credentialsFile falls back to
// application default credentials.
func NewGCSStore(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*GCSStore, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	service, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}

	return &GCSStore{service: service}, nil
}

// Open downloads the object.
func (s *GCSStore) Open(ctx context.Context, location *url.URL) (io.ReadCloser, error) {
	bucket, object, err := splitObject(location)
	if err != nil {
		return nil, err
	}

	resp, err := s.service.Objects.Get(bucket, object).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download gs://%s/%s: %w", bucket, object, err)
	}

	return resp.Body, nil
}

// Delete removes the object. An object that is already gone is not an error.
func (s *GCSStore) Delete(ctx context.Context, location *url.URL) error {
	bucket, object, err := splitObject(location)
	if err != nil {
		return err
	}

	err = s.service.Objects.Delete(bucket, object).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete gs://%s/%s: %w", bucket, object, err)
	}

	return nil
}

func splitObject(location *url.URL) (string, string, error) {
	object := strings.TrimPrefix(location.Path, "/")
	if location.Host == "" || object == "" {
		return "", "", fmt.Errorf("invalid object location %q", location.String())
	}
	return location.Host, object, nil
}
