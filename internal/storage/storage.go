// Package storage keeps uploaded images, on local disk or in a MinIO bucket.
package storage

import (
	"context"
	"io"
)

// ImageStore saves uploaded files under a server-chosen name. Saving an existing
// name replaces the previous content.
type ImageStore interface {
	// Save writes the content and returns the path or object key it is reachable under.
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, path string) error
	// Exists reports whether Save would replace existing content under name.
	Exists(ctx context.Context, name string) (bool, error)
}
