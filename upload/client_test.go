package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-lab/flow-extension/upload/errors"
	"github.com/emergent-lab/flow-extension/upload/internal/testutil"
	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(WithCredentials(&testutil.MockCredentials{}))
	require.Error(t, err)

	assert.True(t, errors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "base url")
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(WithBaseURL("https://coordinator.example"))
	require.Error(t, err)

	assert.True(t, errors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "credential provider")
}

func TestNewBuildsHTTPCoordinator(t *testing.T) {
	client, err := New(
		WithBaseURL("https://coordinator.example"),
		WithCredentials(&testutil.MockCredentials{}),
	)
	require.NoError(t, err)

	_, ok := client.coordinator.(*HTTPCoordinator)
	assert.True(t, ok, "the default coordinator speaks the REST protocol")
	assert.Equal(t, defaultConcurrency, client.concurrency)
}

func TestNewWithCoordinatorSkipsWireConfig(t *testing.T) {
	client := NewWithCoordinator(&testutil.MockCoordinator{})
	require.NotNil(t, client)
	assert.Equal(t, defaultConcurrency, client.concurrency)
}

func TestNewAppliesOptions(t *testing.T) {
	client := NewWithCoordinator(&testutil.MockCoordinator{},
		WithConcurrency(9),
		WithRetryPolicy(uploadtypes.RetryPolicy{MaxAttempts: 7}),
	)
	require.NotNil(t, client)

	assert.Equal(t, 9, client.concurrency)
}

func TestNewIgnoresNonPositiveTuning(t *testing.T) {
	client := NewWithCoordinator(&testutil.MockCoordinator{},
		WithConcurrency(0),
		WithConcurrency(-3),
		WithBandwidthLimit(-1),
	)
	require.NotNil(t, client)

	assert.Equal(t, defaultConcurrency, client.concurrency)
}
