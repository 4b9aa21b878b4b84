package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"uploadgate/internal/upload"
)

// Client implements the multipart gateway on top of the AWS SDK. Presigned
// part URLs let browsers upload bytes directly to the store, so no file
// data ever flows through this service.
type Client struct {
	s3Client      *s3.Client
	presigner     *s3.PresignClient
	presignExpiry time.Duration
	sseAlgorithm  s3Types.ServerSideEncryption
	sseKMSKeyID   string
}

// Options configures the gateway. SSEAlgorithm is "AES256" or "aws:kms";
// empty disables server-side encryption on created uploads. SSEKMSKeyID is
// only consulted for aws:kms.
type Options struct {
	Region        string
	AccessKey     string
	SecretKey     string
	Endpoint      string
	PresignExpiry time.Duration
	SSEAlgorithm  string
	SSEKMSKeyID   string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	var cfg aws.Config
	var err error

	if opts.AccessKey != "" && opts.SecretKey != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(opts.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		s3Client:      s3Client,
		presigner:     s3.NewPresignClient(s3Client),
		presignExpiry: opts.PresignExpiry,
		sseAlgorithm:  s3Types.ServerSideEncryption(opts.SSEAlgorithm),
		sseKMSKeyID:   opts.SSEKMSKeyID,
	}, nil
}

// CreateUpload opens a multipart upload and returns its remote id.
func (c *Client) CreateUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	c.applySSE(input)

	result, err := c.s3Client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", err
	}

	return *result.UploadId, nil
}

func (c *Client) applySSE(input *s3.CreateMultipartUploadInput) {
	if c.sseAlgorithm == "" {
		return
	}
	input.ServerSideEncryption = c.sseAlgorithm
	if c.sseAlgorithm == s3Types.ServerSideEncryptionAwsKms && c.sseKMSKeyID != "" {
		input.SSEKMSKeyId = aws.String(c.sseKMSKeyID)
	}
}

// PresignPartUpload generates a presigned URL for uploading one part.
func (c *Client) PresignPartUpload(ctx context.Context, bucket, key, uploadID string, partNumber int) (string, error) {
	request, err := c.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(int32(partNumber)),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = c.presignExpiry
	})
	if err != nil {
		return "", err
	}

	return request.URL, nil
}

// CompleteUpload finalizes the multipart upload with the ordered manifest.
func (c *Client) CompleteUpload(ctx context.Context, bucket, key, uploadID string, parts []upload.CompletedPart) error {
	completedParts := make([]s3Types.CompletedPart, len(parts))
	for i, part := range parts {
		completedParts[i] = s3Types.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int32(int32(part.PartNumber)),
		}
	}

	_, err := c.s3Client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &s3Types.CompletedMultipartUpload{
			Parts: completedParts,
		},
	})
	return err
}

// AbortUpload aborts the multipart upload. An upload the store has already
// garbage-collected counts as aborted, which keeps retried aborts
// idempotent.
func (c *Client) AbortUpload(ctx context.Context, bucket, key, uploadID string) error {
	_, err := c.s3Client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchUpload" {
			return nil
		}
		return err
	}
	return nil
}
