package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		got, err := RetryWithBackoff(context.Background(), nil, "op", 3, time.Millisecond, func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("flaky")
			}
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("no data is not retried", func(t *testing.T) {
		calls := 0
		_, err := RetryWithBackoff(context.Background(), nil, "op", 5, time.Millisecond, func(ctx context.Context) (int, error) {
			calls++
			return 0, ErrNoData
		})
		assert.ErrorIs(t, err, ErrNoData)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on context cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := RetryWithBackoff(ctx, nil, "op", 5, time.Hour, func(ctx context.Context) (int, error) {
			return 0, errors.New("down")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("disk full")
	err := NewDurabilityError("write state", cause)
	assert.Equal(t, "write state failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	var de *DurabilityError
	assert.ErrorAs(t, err, &de)

	var ve *ValidationError
	assert.ErrorAs(t, NewValidationError("empty symbol"), &ve)
	assert.Equal(t, "empty symbol", ve.Error())
}

func TestProxyManager(t *testing.T) {
	pm := NewProxyManager([]string{"not a proxy", "127.0.0.1:8080", "http://10.0.0.1:3128"}, "agent")
	assert.True(t, pm.HasProxies())
	assert.Equal(t, "agent", pm.GetUserAgent())

	first, err := pm.GetCurrentProxy()
	require.NoError(t, err)
	pm.RotateProxy()
	second, err := pm.GetCurrentProxy()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	empty := NewProxyManager(nil, "")
	assert.False(t, empty.HasProxies())
	assert.NotEmpty(t, empty.GetUserAgent())
}
