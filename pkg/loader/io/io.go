package io

import (
	"context"
	"io"
	"os"
)

// IOSourceLoader reads relation files from the local filesystem.
type IOSourceLoader struct{}

// NewIOSourceLoader creates a filesystem-backed loader.
func NewIOSourceLoader() *IOSourceLoader {
	return &IOSourceLoader{}
}

// Open returns the *os.File for path. A missing file surfaces as an
// *fs.PathError wrapping fs.ErrNotExist.
func (l *IOSourceLoader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(path)
}
