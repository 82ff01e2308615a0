// Package r2client stores book club archives in Cloudflare R2.
//
// R2 speaks the S3 API, so the client wraps the AWS S3 SDK. Conditional
// writes (If-None-Match / If-Match) back the Lock that keeps concurrent
// instances from exporting the same history twice.
package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("r2client: object not found")

// Store is the object storage surface used by the archive and the lock.
// Conditional puts report false (not an error) when the precondition fails.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (etag string, err error)
	PutIfAbsent(ctx context.Context, key string, body []byte, contentType string) (created bool, etag string, err error)
	PutIfMatch(ctx context.Context, key string, body []byte, etag, contentType string) (updated bool, newETag string, err error)
	Get(ctx context.Context, key string) (body []byte, etag string, err error)
	Delete(ctx context.Context, key string) error
}

// Config holds R2 client configuration.
type Config struct {
	Endpoint    string // e.g. https://<account-id>.r2.cloudflarestorage.com
	AccessKeyID string
	SecretKey   string
	BucketName  string
}

// Validate reports the first missing field.
func (c Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("r2client: endpoint is required")
	case c.AccessKeyID == "":
		return errors.New("r2client: access key ID is required")
	case c.SecretKey == "":
		return errors.New("r2client: secret access key is required")
	case c.BucketName == "":
		return errors.New("r2client: bucket name is required")
	}
	return nil
}

// Client is a Store backed by an R2 bucket.
type Client struct {
	s3     *s3.Client
	bucket string
}

var _ Store = (*Client)(nil)

// New creates an R2 client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2client: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return &Client{s3: client, bucket: cfg.BucketName}, nil
}

func (c *Client) putInput(key string, body []byte, contentType string) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	return input
}

// Put writes key unconditionally.
func (c *Client) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	out, err := c.s3.PutObject(ctx, c.putInput(key, body, contentType))
	if err != nil {
		return "", fmt.Errorf("r2client: put %q: %w", key, err)
	}
	return trimETag(out.ETag), nil
}

// PutIfAbsent writes key only when it does not exist (If-None-Match: *).
func (c *Client) PutIfAbsent(ctx context.Context, key string, body []byte, contentType string) (bool, string, error) {
	input := c.putInput(key, body, contentType)
	input.IfNoneMatch = aws.String("*")

	out, err := c.s3.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("r2client: put if absent %q: %w", key, err)
	}
	return true, trimETag(out.ETag), nil
}

// PutIfMatch overwrites key only when its ETag still equals etag.
func (c *Client) PutIfMatch(ctx context.Context, key string, body []byte, etag, contentType string) (bool, string, error) {
	input := c.putInput(key, body, contentType)
	input.IfMatch = aws.String(`"` + etag + `"`)

	out, err := c.s3.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("r2client: put if match %q: %w", key, err)
	}
	return true, trimETag(out.ETag), nil
}

// Get reads key. It returns ErrNotFound when the object does not exist.
func (c *Client) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("r2client: get %q: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("r2client: read %q: %w", key, err)
	}
	return body, trimETag(out.ETag), nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("r2client: delete %q: %w", key, err)
	}
	return nil
}

func trimETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, `"`)
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
		return true
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusPreconditionFailed
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
