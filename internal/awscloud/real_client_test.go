package awscloud

import (
	"context"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/util/retry"
)

func TestAPICallRetriesTransientFailures(t *testing.T) {
	attempts := 0
	err := apiCall(context.Background(), "describe cluster", func() error {
		attempts++
		if attempts < 3 {
			return &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
		}
		return nil
	}, retry.WithInitialDelay(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestAPICallDoesNotRetryNotFound(t *testing.T) {
	attempts := 0
	err := apiCall(context.Background(), "describe cluster", func() error {
		attempts++
		return &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "no such cluster"}
	}, retry.WithInitialDelay(time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound), "got kind %s", errdefs.KindOf(err))
}

func TestAPICallDoesNotRetryCredentialFailures(t *testing.T) {
	attempts := 0
	err := apiCall(context.Background(), "list nodegroups", func() error {
		attempts++
		return &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}
	}, retry.WithInitialDelay(time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, errdefs.IsKind(err, errdefs.KindCredential), "got kind %s", errdefs.KindOf(err))
}

func TestAPICallExhaustsRetriesWithCloudAPIKind(t *testing.T) {
	attempts := 0
	err := apiCall(context.Background(), "describe subnets", func() error {
		attempts++
		return &smithy.GenericAPIError{Code: "InternalServerException", Message: "oops"}
	}, retry.WithInitialDelay(time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, apiMaxRetries+1, attempts)
	assert.True(t, errdefs.IsKind(err, errdefs.KindCloudAPI), "got kind %s", errdefs.KindOf(err))
}
