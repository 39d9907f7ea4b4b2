package upload

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/ratelimit"

	"github.com/emergent-lab/flow-extension/upload/errors"
	"github.com/emergent-lab/flow-extension/upload/internal/transfer"
	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// Client defaults.
const (
	// defaultConcurrency is the number of files uploaded in parallel
	defaultConcurrency = 4

	// defaultMaxAttempts is the per-part attempt budget
	defaultMaxAttempts = 3

	// defaultBaseDelay is the delay before a part's first retry
	defaultBaseDelay = time.Second

	// defaultMaxDelay caps the exponential retry delay growth
	defaultMaxDelay = 10 * time.Second
)

// Client uploads batches of encoded captures through a coordinator.
// It is safe for concurrent use; independent batches share nothing but the
// coordinator and the optional bandwidth bucket.
type Client struct {
	// coordinator owns session lifecycle: create, sign, complete, abort
	coordinator uploadtypes.Coordinator

	// transmitter sends individual parts to storage
	transmitter *transfer.Transmitter

	// logger records lifecycle events when set
	logger *slog.Logger

	// concurrency is the default parallel file count for UploadAll
	concurrency int
}

// New creates an upload client with the provided options.
// Unless a custom coordinator is injected with WithCoordinator, both
// WithBaseURL and WithCredentials are required.
//
// Example:
//
//	client, err := upload.New(
//	    upload.WithBaseURL("https://capture.example.com"),
//	    upload.WithCredentials(upload.NewStaticTokenCredentials(token)),
//	)
func New(opts ...uploadtypes.Option) (*Client, error) {
	cfg := &uploadtypes.ClientConfig{
		Concurrency: defaultConcurrency,
		RetryPolicy: uploadtypes.RetryPolicy{
			MaxAttempts: defaultMaxAttempts,
			BaseDelay:   defaultBaseDelay,
			MaxDelay:    defaultMaxDelay,
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	coordinator := cfg.Coordinator
	if coordinator == nil {
		if cfg.BaseURL == "" {
			return nil, errors.NewError("client initialization",
				fmt.Errorf("%w: coordinator base url is required", errors.ErrInvalidInput))
		}
		if cfg.Credentials == nil {
			return nil, errors.NewError("client initialization",
				fmt.Errorf("%w: credential provider is required", errors.ErrInvalidInput))
		}
		coordinator = NewHTTPCoordinator(cfg.BaseURL, cfg.Credentials, cfg.HTTPClient)
	}

	// One shared bucket throttles aggregate bandwidth across all files and
	// batches on this client.
	var bucket *ratelimit.Bucket
	if cfg.BandwidthLimit > 0 {
		bucket = ratelimit.NewBucketWithRate(float64(cfg.BandwidthLimit), cfg.BandwidthLimit)
	}

	transmitter := transfer.New(transfer.Config{
		Coordinator: coordinator,
		HTTPClient:  cfg.HTTPClient,
		Policy:      cfg.RetryPolicy,
		Bucket:      bucket,
		Logger:      cfg.Logger,
	})

	return &Client{
		coordinator: coordinator,
		transmitter: transmitter,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}, nil
}

// NewWithCoordinator creates a client around a custom coordinator
// implementation. This is primarily used for testing with mocked
// coordinators and by the direct S3 mode.
func NewWithCoordinator(coordinator uploadtypes.Coordinator, opts ...uploadtypes.Option) *Client {
	client, _ := New(append([]uploadtypes.Option{WithCoordinator(coordinator)}, opts...)...)
	return client
}
