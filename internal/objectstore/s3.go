// Package objectstore wraps the S3 operations the pipeline needs: reading
// the raw batch object and writing the processed archive copy.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"salespipe/internal/types"
)

// S3API abstracts the S3 operations used by the client for testability.
// Production code uses *s3.Client from aws-sdk-go-v2.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client is a thin bucket/key oriented facade over the S3 API.
type Client struct {
	api S3API
}

// NewClient creates a Client backed by the given S3 API.
func NewClient(api S3API) *Client {
	return &Client{api: api}
}

// Get reads the full contents of the object at bucket/key.
func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeObjectStorage,
			fmt.Sprintf("failed to get s3://%s/%s", bucket, key), err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeObjectStorage,
			fmt.Sprintf("failed to read s3://%s/%s", bucket, key), err)
	}
	return body, nil
}

// Put writes body to bucket/key with the given content type.
func (c *Client) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeObjectStorage,
			fmt.Sprintf("failed to put s3://%s/%s", bucket, key), err)
	}
	return nil
}
