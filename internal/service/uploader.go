package service

import (
	"context"
	"io"
)

// Artifact identifies a stored certificate file. The public ID is what the
// artifact store needs to delete the file again.
type Artifact struct {
	URL      string
	PublicID string
}

// FileUploader stores and removes certificate artifacts. The core only ever
// holds references, never raw bytes.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (Artifact, error)
	Delete(ctx context.Context, publicID string) error
}
