// Package s3direct implements the upload coordinator interface straight
// against S3, for deployments that run without a coordinator service. The
// chunking plan is computed locally and part URLs are presigned with the
// AWS SDK instead of being signed by a remote service.
package s3direct

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

const (
	// defaultPartSize is the locally planned part size
	defaultPartSize = 8 * 1024 * 1024

	// minPartSize is the S3 floor for non-final multipart parts
	minPartSize = 5 * 1024 * 1024

	// defaultPresignExpiry bounds how long a signed part URL stays valid
	defaultPresignExpiry = 15 * time.Minute

	// defaultKeyPrefix namespaces captured objects inside the bucket
	defaultKeyPrefix = "captures/"
)

// s3API is the multipart call surface consumed from the SDK client.
type s3API interface {
	CreateMultipartUpload(ctx context.Context, input *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	CompleteMultipartUpload(ctx context.Context, input *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, input *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// presignAPI is the presigning call surface consumed from the SDK presign
// client.
type presignAPI interface {
	PresignUploadPart(ctx context.Context, input *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Config holds the settings for a direct S3 coordinator.
type Config struct {
	// Bucket is the target bucket. Required.
	Bucket string

	// KeyPrefix namespaces object keys. Default is "captures/".
	KeyPrefix string

	// PartSize is the locally planned part size in bytes.
	// Default is 8MB; S3 requires at least 5MB.
	PartSize int64

	// PresignExpiry bounds signed URL validity. Default is 15 minutes.
	PresignExpiry time.Duration

	// Region overrides the region from the default AWS config chain.
	Region string

	// Endpoint points at an S3-compatible store. Default is AWS S3.
	Endpoint string

	// UsePathStyle forces path-style addressing, required by most
	// S3-compatible stores.
	UsePathStyle bool

	// Credentials overrides the default AWS credential chain.
	Credentials aws.CredentialsProvider

	// Logger records session lifecycle events when set.
	Logger *slog.Logger
}

// Coordinator implements uploadtypes.Coordinator against S3.
type Coordinator struct {
	client      s3API
	presign     presignAPI
	credentials aws.CredentialsProvider
	logger      *slog.Logger

	bucket   string
	prefix   string
	partSize int64
	expiry   time.Duration
}

var _ uploadtypes.Coordinator = (*Coordinator)(nil)

// apiError unwraps SDK failures to their S3 error code and message when
// one is present. The raw SDK error text buries the code inside several
// layers of operation wrapping.
func apiError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s: %s", op, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%s: %w", op, err)
}

// New creates a direct S3 coordinator. Credentials come from the default
// AWS chain unless Config.Credentials overrides them.
func New(ctx context.Context, cfg Config) (*Coordinator, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Credentials != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(cfg.Credentials))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	presign := s3.NewPresignClient(client, s3.WithPresignExpires(expiry))

	return NewWithClient(client, presign, awsCfg.Credentials, cfg)
}

// NewWithClient creates a coordinator around explicit SDK clients. This is
// primarily used for testing with mocked clients.
func NewWithClient(
	client s3API,
	presign presignAPI,
	credentials aws.CredentialsProvider,
	cfg Config,
) (*Coordinator, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	partSize := cfg.PartSize
	if partSize == 0 {
		partSize = defaultPartSize
	}
	if partSize < minPartSize {
		return nil, fmt.Errorf("part size %d is below the S3 minimum of %d", partSize, minPartSize)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}

	return &Coordinator{
		client:      client,
		presign:     presign,
		credentials: credentials,
		logger:      cfg.Logger,
		bucket:      cfg.Bucket,
		prefix:      prefix,
		partSize:    partSize,
		expiry:      expiry,
	}, nil
}

// Authorize resolves AWS credentials once, surfacing chain failures before
// any session is created.
func (c *Coordinator) Authorize(ctx context.Context) error {
	if c.credentials == nil {
		return nil
	}
	if _, err := c.credentials.Retrieve(ctx); err != nil {
		return fmt.Errorf("retrieving aws credentials: %w", err)
	}

	return nil
}

// CreateSession opens a multipart upload and computes the chunking plan
// locally from the configured part size.
func (c *Coordinator) CreateSession(
	ctx context.Context,
	filename, mimeType string,
	size int64,
) (uploadtypes.Session, error) {
	key := c.prefix + filename

	out, err := c.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return uploadtypes.Session{}, apiError("creating multipart upload", err)
	}

	session := uploadtypes.Session{
		UploadID:   aws.ToString(out.UploadId),
		Key:        key,
		PartSize:   c.partSize,
		TotalParts: int((size + c.partSize - 1) / c.partSize),
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "multipart upload opened",
			"bucket", c.bucket,
			"key", key,
			"upload_id", session.UploadID,
			"total_parts", session.TotalParts)
	}

	return session, nil
}

// SignPartURL presigns an UploadPart request for one part.
func (c *Coordinator) SignPartURL(
	ctx context.Context,
	key, uploadID string,
	partNumber int,
) (string, error) {
	req, err := c.presign.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(c.bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(int32(partNumber)),
	}, s3.WithPresignExpires(c.expiry))
	if err != nil {
		return "", apiError(fmt.Sprintf("presigning part %d", partNumber), err)
	}

	return req.URL, nil
}

// CompleteSession assembles the uploaded parts into the final object.
func (c *Coordinator) CompleteSession(
	ctx context.Context,
	key, uploadID string,
	parts []uploadtypes.PartResult,
) error {
	completed := make([]types.CompletedPart, len(parts))
	for i, part := range parts {
		// Part ETags travel through the pipeline with their surrounding
		// quotes stripped; the S3 complete call expects the canonical
		// quoted form.
		etag := part.ETag
		if !strings.HasPrefix(etag, `"`) {
			etag = `"` + etag + `"`
		}
		completed[i] = types.CompletedPart{
			ETag:       aws.String(etag),
			PartNumber: aws.Int32(int32(part.PartNumber)),
		}
	}

	_, err := c.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(c.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return apiError("completing multipart upload", err)
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "multipart upload completed",
			"bucket", c.bucket,
			"key", key,
			"parts", len(parts))
	}

	return nil
}

// AbortSession discards an unfinished multipart upload so the bucket does
// not accumulate orphaned parts.
func (c *Coordinator) AbortSession(ctx context.Context, key, uploadID string) error {
	_, err := c.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return apiError("aborting multipart upload", err)
	}

	return nil
}
