package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	envConfig "github.com/rirts/attribution-os/internal/config"
)

// Client is an S3 object-store client. It speaks path-style addressing so a
// local MinIO endpoint works the same as AWS.
type Client struct {
	client *s3.Client
	log    *zap.Logger
}

// NewClient creates a new S3 client from the store configuration.
func NewClient(ctx context.Context, s3Config envConfig.S3, log *zap.Logger) (*Client, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s3Config.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3Config.AccessKey, s3Config.SecretKey, "")),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s3Config.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3Config.Endpoint)
		}
		o.UsePathStyle = true
	})

	log.Info("S3 client created",
		zap.String("endpoint", s3Config.Endpoint),
		zap.String("region", s3Config.Region))

	return &Client{client: client, log: log}, nil
}

// List returns every key under prefix ending with suffix, following
// continuation tokens until the listing is exhausted.
func (c *Client) List(ctx context.Context, bucket, prefix, suffix string) ([]string, error) {
	var keys []string
	var token *string

	for {
		out, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if suffix == "" || strings.HasSuffix(key, suffix) {
				keys = append(keys, key)
			}
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	return keys, nil
}

// Get reads the full body of an object.
func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer func() {
		if err := out.Body.Close(); err != nil {
			c.log.Error("Failed to close object body", zap.String("key", key), zap.Error(err))
		}
	}()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return body, nil
}

// Put writes an object, overwriting any previous version.
func (c *Client) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// EnsureBucket creates the bucket if a head request fails. Creation races
// between concurrent runs are harmless: the second create fails and the
// bucket exists either way.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}

	c.log.Info("Creating bucket", zap.String("bucket", bucket))
	if _, err := c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}
