// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3mcp.
//
// go-s3mcp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package s3 provides the storage gateway for AWS S3 and S3-compatible
// services (MinIO, DigitalOcean Spaces, Cloudflare R2, Yandex Object Storage)
// via a custom endpoint.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jeremyhahn/go-s3mcp/pkg/common"
	"github.com/jeremyhahn/go-s3mcp/pkg/config"
)

// S3 is a storage gateway backed by an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
}

var _ common.Storage = (*S3)(nil)

// New creates an S3 gateway from settings. When access-key/secret-key are
// empty the default AWS credential chain is used (env, shared config, IAM
// role).
func New(ctx context.Context, settings *config.Settings) (*S3, error) {
	if settings.Bucket == "" {
		return nil, common.ErrBucketNotSet
	}
	if settings.Region == "" {
		return nil, common.ErrRegionNotSet
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(settings.Region),
	}
	if settings.AccessKey != "" && settings.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(settings.AccessKey, settings.SecretKey, "")
		optFns = append(optFns, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if settings.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(settings.Endpoint)
		})
	}
	if settings.ForcePathStyle {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3{
		client: s3.NewFromConfig(awsCfg, s3Options...),
		bucket: settings.Bucket,
	}, nil
}

// Put stores an object.
func (b *S3) Put(ctx context.Context, key string, data io.Reader, metadata *common.Metadata) (*common.Metadata, error) {
	if metadata == nil {
		metadata = &common.Metadata{}
	}

	contentType := metadata.ContentType
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	}
	if len(metadata.Custom) > 0 {
		input.Metadata = metadata.Custom
	}

	output, err := b.client.PutObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to put object %q: %w", key, err)
	}

	return &common.Metadata{
		ContentType: contentType,
		Size:        metadata.Size,
		ETag:        strings.Trim(aws.ToString(output.ETag), `"`),
	}, nil
}

// Get retrieves an object's content and metadata.
func (b *S3) Get(ctx context.Context, key string) (io.ReadCloser, *common.Metadata, error) {
	output, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil, fmt.Errorf("%w: %s", common.ErrKeyNotFound, key)
		}
		return nil, nil, fmt.Errorf("failed to get object %q: %w", key, err)
	}

	md := &common.Metadata{
		ContentType: aws.ToString(output.ContentType),
		Size:        aws.ToInt64(output.ContentLength),
		ETag:        strings.Trim(aws.ToString(output.ETag), `"`),
	}
	if output.LastModified != nil {
		md.LastModified = *output.LastModified
	}
	if output.Metadata != nil {
		md.Custom = output.Metadata
	}

	return output.Body, md, nil
}

// Head retrieves only the metadata for an object.
func (b *S3) Head(ctx context.Context, key string) (*common.Metadata, error) {
	output, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// HeadObject reports absence as a bare 404 rather than NoSuchKey.
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", common.ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("failed to head object %q: %w", key, err)
	}

	md := &common.Metadata{
		ContentType:  aws.ToString(output.ContentType),
		Size:         aws.ToInt64(output.ContentLength),
		ETag:         strings.Trim(aws.ToString(output.ETag), `"`),
		StorageClass: string(output.StorageClass),
	}
	if output.LastModified != nil {
		md.LastModified = *output.LastModified
	}
	if output.Metadata != nil {
		md.Custom = output.Metadata
	}

	return md, nil
}

// List returns objects matching opts in key order.
func (b *S3) List(ctx context.Context, opts *common.ListOptions) (*common.ListResult, error) {
	if opts == nil {
		opts = &common.ListOptions{}
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(opts.Prefix),
	}
	if opts.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(int32(opts.MaxKeys))
	}

	output, err := b.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	result := &common.ListResult{
		Objects:   make([]*common.ObjectInfo, 0, len(output.Contents)),
		Truncated: aws.ToBool(output.IsTruncated),
	}

	for _, obj := range output.Contents {
		md := &common.Metadata{
			Size:         aws.ToInt64(obj.Size),
			ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
			StorageClass: string(obj.StorageClass),
		}
		if md.StorageClass == "" {
			md.StorageClass = "STANDARD"
		}
		if obj.LastModified != nil {
			md.LastModified = *obj.LastModified
		}

		result.Objects = append(result.Objects, &common.ObjectInfo{
			Key:      aws.ToString(obj.Key),
			Metadata: md,
		})
	}

	return result, nil
}

// Delete removes an object. S3 treats deletion of an absent key as success;
// callers that require existence check with Head first.
func (b *S3) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}
