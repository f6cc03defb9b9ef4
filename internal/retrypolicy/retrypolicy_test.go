package retrypolicy

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/internal/costgov"
)

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "timeout" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }

var _ net.Error = fakeTimeoutErr{}

func TestClassify_CostLimitNeverRetried(t *testing.T) {
	err := &costgov.CostLimitExceeded{Which: "tokens_per_run", Actual: 10, Limit: 5}
	require.False(t, Classify(err))
}

func TestClassify_TransientErrorRetried(t *testing.T) {
	err := &TransientError{Err: errors.New("connection reset")}
	require.True(t, Classify(err))
}

func TestClassify_NetTimeoutRetried(t *testing.T) {
	require.True(t, Classify(fakeTimeoutErr{}))
}

func TestClassify_OtherErrorsNotRetried(t *testing.T) {
	require.False(t, Classify(errors.New("boom")))
	require.False(t, Classify(nil))
}

func TestExecute_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := Execute(context.Background(), RemoteForum, func() error {
		attempts++
		if attempts < 2 {
			return &TransientError{Err: errors.New("temporary")}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
}

func TestExecute_StopsImmediatelyOnCostLimitExceeded(t *testing.T) {
	attempts := 0
	costErr := &costgov.CostLimitExceeded{Which: "usd_per_run", Actual: 10, Limit: 5}
	err := Execute(context.Background(), RemoteLLM, func() error {
		attempts++
		return costErr
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)

	var got *costgov.CostLimitExceeded
	require.True(t, errors.As(err, &got))
}

func TestExecute_GivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	err := Execute(context.Background(), RemoteStorefront, func() error {
		attempts++
		return &TransientError{Err: errors.New("still down")}
	})
	require.Error(t, err)
	require.Equal(t, policies[RemoteStorefront].MaxAttempts, attempts)
}

func TestExecute_ContextCanceledDuringBackoffAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := Execute(ctx, RemoteForum, func() error {
		attempts++
		return &TransientError{Err: errors.New("down")}
	})
	require.Error(t, err)
}
