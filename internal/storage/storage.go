package storage

import (
	"context"
	"io"
)

// Uploader stores a synthesized audio object and returns the URL it is
// reachable at.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (url string, err error)
}
