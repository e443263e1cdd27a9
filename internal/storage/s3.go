package storage

import (
	"context"
	"strings"

	"github.com/OFFIS-RIT/kiwi-linker/internal/util"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/loader"
	loaderio "github.com/OFFIS-RIT/kiwi-linker/pkg/loader/io"
	loaders3 "github.com/OFFIS-RIT/kiwi-linker/pkg/loader/s3"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
)

// NewS3Loader builds an S3 source loader from the AWS_* environment.
func NewS3Loader(ctx context.Context) (*loaders3.S3SourceLoader, error) {
	return loaders3.NewS3SourceLoader(ctx, loaders3.NewS3SourceLoaderParams{
		Endpoint:  util.GetEnv("AWS_ENDPOINT"),
		Region:    util.GetEnvString("AWS_REGION", "us-east-1"),
		AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
		SecretKey: util.GetEnv("AWS_SECRET_KEY"),
	})
}

// NewSourceLoader returns a loader able to open every path in paths. The S3
// client is only created when one of them lives in object storage.
func NewSourceLoader(ctx context.Context, paths ...string) (loader.RoutingLoader, error) {
	r := loader.RoutingLoader{Local: loaderio.NewIOSourceLoader()}
	if !anyRemote(paths) {
		return r, nil
	}

	s3Loader, err := NewS3Loader(ctx)
	if err != nil {
		return r, err
	}
	logger.Debug("[Storage] Using S3 for relation files", "endpoint", util.GetEnv("AWS_ENDPOINT"))
	r.S3 = s3Loader
	return r, nil
}

func anyRemote(paths []string) bool {
	for _, p := range paths {
		if strings.HasPrefix(p, "s3://") {
			return true
		}
	}
	return false
}
