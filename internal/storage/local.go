package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalUploader writes objects under dir; the server serves that directory at
// /audio, so the returned URL is a relative path.
type LocalUploader struct {
	dir string
}

func NewLocalUploader(dir string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalUploader{dir: dir}, nil
}

func (u *LocalUploader) Upload(_ context.Context, objectName string, _ string, r io.Reader) (string, error) {
	path := filepath.Join(u.dir, filepath.Base(objectName))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return "/audio/" + filepath.Base(objectName), nil
}
