// Package storage is a thin client for the Supabase Storage HTTP API:
// upload a blob, delete a blob, derive its public URL. Bucket policy
// (which bucket, which path) belongs to the callers.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BlobStore is the contract consumed by the upload coordinator.
type BlobStore interface {
	// PutObject uploads data to bucket/path and returns its public URL.
	PutObject(ctx context.Context, bucket, path, contentType string, data []byte) (string, error)
	// RemoveObject deletes bucket/path. Missing objects are not an error.
	RemoveObject(ctx context.Context, bucket, path string) error
	// PublicURL derives the public URL for bucket/path without touching
	// the network.
	PublicURL(bucket, path string) string
}

// Client talks to the Supabase Storage API with the service role key.
type Client struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewClient creates a storage client.
func NewClient(supabaseURL, serviceKey string) *Client {
	return &Client{
		supabaseURL: supabaseURL,
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// PutObject uploads data and returns the blob's public URL.
func (c *Client) PutObject(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.supabaseURL, bucket, escapePath(path))
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return c.PublicURL(bucket, path), nil
}

// RemoveObject deletes a blob. A 404 is treated as success so cleanup of
// an already-gone blob stays idempotent.
func (c *Client) RemoveObject(ctx context.Context, bucket, path string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.supabaseURL, bucket, escapePath(path))
	req, err := http.NewRequestWithContext(ctx, "DELETE", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// PublicURL derives the public-bucket URL of a blob.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.supabaseURL, bucket, escapePath(path))
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
