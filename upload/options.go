package upload

import (
	"log/slog"
	"net/http"

	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// WithBaseURL sets the coordinator service base URL.
// Required unless a custom coordinator is provided with WithCoordinator.
func WithBaseURL(baseURL string) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithCredentials sets the credential provider consulted once per batch for
// coordinator auth headers.
// Required unless a custom coordinator is provided with WithCoordinator.
func WithCredentials(credentials uploadtypes.CredentialProvider) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Credentials = credentials
	}
}

// WithCoordinator replaces the default HTTP coordinator with a custom
// implementation, such as the direct S3 coordinator or a test double.
// When set, WithBaseURL and WithCredentials are not required.
func WithCoordinator(coordinator uploadtypes.Coordinator) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Coordinator = coordinator
	}
}

// WithHTTPClient sets the HTTP client used for coordinator calls and direct
// storage PUTs. This gives full control over timeouts and proxies.
// Default is http.DefaultClient.
func WithHTTPClient(client *http.Client) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithLogger sets a structured logger for upload lifecycle events and
// swallowed retry failures. Default is no logging.
func WithLogger(logger *slog.Logger) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithConcurrency sets the default number of files uploaded in parallel by
// UploadAll. Default is 4. Values below 1 are ignored.
func WithConcurrency(concurrency int) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithRetryPolicy sets the per-part retry policy.
// Default is 3 attempts with delays of 1s, 2s capped at 10s.
func WithRetryPolicy(policy uploadtypes.RetryPolicy) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		if policy.MaxAttempts > 0 {
			c.RetryPolicy = policy
		}
	}
}

// WithBandwidthLimit caps aggregate upload bandwidth in bytes per second.
// Default is unlimited. Values below 1 are ignored.
func WithBandwidthLimit(bytesPerSecond int64) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		if bytesPerSecond > 0 {
			c.BandwidthLimit = bytesPerSecond
		}
	}
}

// WithBatchConcurrency overrides the client's file concurrency for one
// UploadAll call. Values below 1 are ignored.
func WithBatchConcurrency(concurrency int) uploadtypes.BatchOption {
	return func(c *uploadtypes.BatchConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithFilenames overrides the generated page_<n>.png names for one
// UploadAll call. The slice length must match the number of inputs.
func WithFilenames(filenames []string) uploadtypes.BatchOption {
	return func(c *uploadtypes.BatchConfig) {
		c.Filenames = filenames
	}
}

// WithProgress registers a callback receiving aggregate batch progress.
// Callbacks are serialized; Percent never decreases and reaches 100 on the
// final callback of a successful batch.
func WithProgress(progress uploadtypes.ProgressFunc) uploadtypes.BatchOption {
	return func(c *uploadtypes.BatchConfig) {
		c.Progress = progress
	}
}
