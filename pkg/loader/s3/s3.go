package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/loader"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type getObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3SourceLoader streams relation files out of S3 or an S3-compatible store.
// Paths have the form s3://bucket/key.
type S3SourceLoader struct {
	client getObjectAPI
}

// NewS3SourceLoaderWithClient wraps an existing client.
func NewS3SourceLoaderWithClient(client getObjectAPI) *S3SourceLoader {
	return &S3SourceLoader{client: client}
}

// NewS3SourceLoaderParams holds static credentials and an optional endpoint
// override for S3-compatible storage such as MinIO.
type NewS3SourceLoaderParams struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3SourceLoader builds a client from params.
func NewS3SourceLoader(ctx context.Context, params NewS3SourceLoaderParams) (*S3SourceLoader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &S3SourceLoader{client: client}, nil
}

func (l *S3SourceLoader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, ok := loader.ParseS3Path(path)
	if !ok {
		return nil, fmt.Errorf("invalid s3 path %q", path)
	}
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from S3: %w", path, err)
	}
	return out.Body, nil
}
