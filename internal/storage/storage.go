// Package storage keeps applicant documents in an external file store.
package storage

import (
	"context"
	"io"
)

// Object is a stored file.
type Object struct {
	URL      string
	PublicID string
	Bytes    int
	Format   string
}

type Store interface {
	Upload(ctx context.Context, folder, name string, r io.Reader) (*Object, error)
	Delete(ctx context.Context, publicID string) error
}
