package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failing returns an operation that fails until it has been called succeedOn times.
// succeedOn <= 0 never succeeds.
func failing(succeedOn int, err error) (func() error, *int) {
	attempts := 0
	return func() error {
		attempts++
		if succeedOn > 0 && attempts >= succeedOn {
			return nil
		}
		return err
	}, &attempts
}

func TestRetryWithBackoff(t *testing.T) {
	boom := errors.New("persistent error")

	tests := []struct {
		name         string
		succeedOn    int
		maxAttempts  int
		wantErr      error
		wantAttempts int
	}{
		{"first try", 1, 3, nil, 1},
		{"eventual success", 3, 5, nil, 3},
		{"all attempts fail", 0, 3, boom, 3},
		{"zero attempts", 0, 0, ErrInvalidMaxAttempts, 0},
		{"negative attempts", 0, -1, ErrInvalidMaxAttempts, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, attempts := failing(tt.succeedOn, boom)
			err := RetryWithBackoff(context.Background(), op, tt.maxAttempts, time.Millisecond)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantAttempts, *attempts)
		})
	}
}

func TestRetryWithBackoff_Permanent(t *testing.T) {
	boom := errors.New("bad request")
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return Permanent(boom)
	}, 5, time.Millisecond)

	assert.Equal(t, boom, err, "permanent errors are unwrapped")
	assert.Equal(t, 1, attempts)
	assert.Nil(t, Permanent(nil))
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	operation := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	err := RetryWithBackoff(ctx, operation, 10, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_ExponentialBackoff(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	operation := func() error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(lastTime))
		}
		lastTime = time.Now()
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	}

	err := RetryWithBackoff(context.Background(), operation, 5, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, delays, 3)

	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}
