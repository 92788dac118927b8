package model

import (
	"context"
	"io"
)

// Storage is the object store holding uploaded media (avatars, background
// images). Keys are opaque; callers derive public URLs from them.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
