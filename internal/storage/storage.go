package storage

import (
	"context"
	"io"
)

// Storage is the external image host. Objects are addressed by the public
// URL returned from Save; Delete takes that same URL back.
type Storage interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}
