package loader

import (
	"context"
	"fmt"
	"io"
	"strings"
)

const s3Scheme = "s3://"

// SourceLoader opens a relation file (redirects, disambiguations) for
// sequential reading. Callers close the returned reader.
type SourceLoader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ParseS3Path splits "s3://bucket/key/parts" into bucket and key.
func ParseS3Path(path string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(path, s3Scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, s3Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// RoutingLoader sends s3:// paths to S3 and everything else to Local.
type RoutingLoader struct {
	Local SourceLoader
	S3    SourceLoader
}

func (r RoutingLoader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, s3Scheme) {
		if r.S3 == nil {
			return nil, fmt.Errorf("no s3 loader configured for %s", path)
		}
		return r.S3.Open(ctx, path)
	}
	if r.Local == nil {
		return nil, fmt.Errorf("no local loader configured for %s", path)
	}
	return r.Local.Open(ctx, path)
}
