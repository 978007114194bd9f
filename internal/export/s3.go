package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
)

// PutObjectAPI is the part of *s3.Client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads every page as <prefix>/<resource>/<run-id>/page-00001.json.
type S3Sink struct {
	api    PutObjectAPI
	bucket string
	prefix string
}

// NewS3Sink creates a sink uploading to bucket below prefix, or the default prefix when empty.
func NewS3Sink(api PutObjectAPI, bucket, prefix string) *S3Sink {
	if prefix == "" {
		prefix = constants.DefaultS3Prefix
	}

	return &S3Sink{api: api, bucket: bucket, prefix: prefix}
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// A non-empty endpoint selects an S3-compatible store with path-style addressing.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Key returns the object key of a page.
func (s *S3Sink) Key(page Page) string {
	return path.Join(s.prefix, page.Resource, page.RunID, fmt.Sprintf(constants.PageKeyFormat, page.Number))
}

// Write implements Sink.
func (s *S3Sink) Write(ctx context.Context, page Page) error {
	key := s.Key(page)

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(page.Body),
		ContentType: aws.String(constants.ContentTypeJSON),
		Metadata: map[string]string{
			"run-id":   page.RunID,
			"resource": page.Resource,
			"page":     strconv.Itoa(page.Number),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

// Close implements Sink.
func (s *S3Sink) Close() error {
	return nil
}
