// Package retrypolicy classifies errors as transient or terminal and
// retries transient ones with exponential backoff and jitter, using a
// separate policy table per remote (llm/forum/storefront).
package retrypolicy

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/postforge/postforge/internal/costgov"
)

// Remote names one of the three external collaborators this package
// retries calls to, each with its own backoff table.
type Remote string

const (
	RemoteLLM        Remote = "llm"
	RemoteForum      Remote = "forum"
	RemoteStorefront Remote = "storefront"
)

// Policy is one remote's backoff parameters.
type Policy struct {
	MaxAttempts int
	MinWait     time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// policies mirrors original_source/services/retry_handler.py's
// BACKOFF_STRATEGIES table.
var policies = map[Remote]Policy{
	RemoteForum:      {MaxAttempts: 3, MinWait: 3 * time.Second, MaxWait: 30 * time.Second, Multiplier: 2},
	RemoteLLM:        {MaxAttempts: 4, MinWait: 2 * time.Second, MaxWait: 60 * time.Second, Multiplier: 2},
	RemoteStorefront: {MaxAttempts: 3, MinWait: 2 * time.Second, MaxWait: 30 * time.Second, Multiplier: 2},
}

// TransientError wraps an underlying error to mark it retryable. Remote
// clients return this for network timeouts, connection resets, and 5xx
// responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Classify reports whether err should be retried. A *costgov.CostLimitExceeded
// is never retried, regardless of its underlying cause — this check runs
// first and unconditionally, per the specification's explicit carve-out.
func Classify(err error) bool {
	if err == nil {
		return false
	}
	var costErr *costgov.CostLimitExceeded
	if errors.As(err, &costErr) {
		return false
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// Execute runs fn, retrying on transient errors per remote's policy with
// exponential backoff and full jitter, stopping early (unretried) on a
// cost-limit error or once the context is done.
func Execute(ctx context.Context, remote Remote, fn func() error) error {
	policy := policies[remote]
	if policy.MaxAttempts == 0 {
		policy = policies[RemoteLLM]
	}

	var lastErr error
	wait := policy.MinWait
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !Classify(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}

		jittered := time.Duration(rand.Int63n(int64(wait)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered):
		}

		wait = time.Duration(float64(wait) * policy.Multiplier)
		if wait > policy.MaxWait {
			wait = policy.MaxWait
		}
	}
	return lastErr
}
