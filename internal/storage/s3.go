// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// keyPrefix namespaces product images inside the bucket.
const keyPrefix = "products/"

// S3 stores objects in one S3-compatible bucket.
type S3 struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
	publicACL bool
}

// NewS3 creates an S3 backend configured for path-style addressing
// (required by CEPH/Hetzner). Returns (nil, nil) if endpoint or
// credentials are empty so callers can fall back to disk storage.
func NewS3(endpoint, region, accessKey, secretKey, bucket, publicURL string, publicACL bool) (*S3, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	// Strip trailing slash from endpoint for consistent URL building.
	endpoint = strings.TrimRight(endpoint, "/")

	client := s3.New(s3.Options{
		Region:                     region,
		BaseEndpoint:               aws.String(endpoint),
		Credentials:                credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle:               true,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})

	return &S3{
		s3:        client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
		publicACL: publicACL,
	}, nil
}

// Put uploads data under key.
func (c *S3) Put(ctx context.Context, key, contentType string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(keyPrefix + key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}
	if c.publicACL {
		input.ACL = s3types.ObjectCannedACLPublicRead
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Delete removes the object stored under key. S3 treats deleting a
// missing key as success.
func (c *S3) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(keyPrefix + key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// URL returns the public URL for key. Uses the configured public URL if
// set, otherwise builds a path-style URL.
func (c *S3) URL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + keyPrefix + key
	}
	return c.endpoint + "/" + c.bucket + "/" + keyPrefix + key
}
