package fetch

import (
	"context"
	"time"

	"github.com/rmja/fetch-client/retry"
)

// RetryConfig configures the retry interceptor for a client. The config is
// shared across calls and never mutated by the interceptor; counters and
// request snapshots live in the call scope.
type RetryConfig struct {
	// Policy decides eligibility by attempt count and computes backoff.
	Policy retry.Policy
	// DoRetry overrides the default eligibility check. The default retries
	// when the exchange failed with a transport error or the response is
	// not a success. Exactly one of resp and err is non-nil.
	DoRetry func(resp *Response, req *Request, err error) bool
	// BeforeRetry mutates the cloned request immediately before it is
	// resubmitted, e.g. to refresh an auth token. It runs inside the
	// resubmission's request phase, so a failure propagates like any other
	// request-phase error.
	BeforeRetry func(ctx context.Context, req *Request) error
}

// NewRetryInterceptor builds an interceptor that resubmits failed
// exchanges according to cfg. Register it first so it observes the
// original request before other hooks rewrite it and sees the final
// response-phase outcome.
//
// Per logical call the interceptor walks INIT -> SENT -> (SUCCESS|FAILED),
// scheduling a retry on failure until the policy exhausts, and resubmits
// the snapshot through the full chain from the top.
func NewRetryInterceptor(cfg RetryConfig) Interceptor {
	return Interceptor{
		Name: "retry",
		Request: func(ctx context.Context, req *Request) (*RequestResult, error) {
			state := retryStateFor(ctx)
			if state == nil {
				return nil, nil
			}
			if state.clone == nil {
				// First pass of the logical call: snapshot the original
				// intent before any other hook runs.
				state.clone = req.Clone()
				return nil, nil
			}
			if state.resubmitted {
				state.resubmitted = false
				if cfg.BeforeRetry != nil {
					if err := cfg.BeforeRetry(ctx, req); err != nil {
						return nil, err
					}
				}
			}
			return ContinueWith(req), nil
		},
		Response: func(ctx context.Context, req *Request, resp *Response) (*Response, error) {
			if !cfg.eligible(resp, req, nil) {
				return resp, nil
			}
			return cfg.scheduleRetry(ctx, reissuerFrom(ctx), resp, nil)
		},
		ResponseError: func(ctx context.Context, client Doer, req *Request, err error) (*Response, error) {
			if IsErrorType(err, CanceledError) {
				// A canceled call must not be resubmitted.
				return nil, err
			}
			if !cfg.eligible(nil, req, err) {
				return nil, err
			}
			return cfg.scheduleRetry(ctx, client, nil, err)
		},
	}
}

// eligible applies the configured retry predicate. The attempt-count check
// happens in scheduleRetry, against call-scoped state.
func (cfg *RetryConfig) eligible(resp *Response, req *Request, err error) bool {
	if cfg.DoRetry != nil {
		return cfg.DoRetry(resp, req, err)
	}
	if err != nil {
		// Only transport failures are retried by default; unrecovered
		// hook failures are programming errors and stay fatal.
		return IsErrorType(err, TransportError)
	}
	return !resp.IsSuccess()
}

// scheduleRetry consumes one retry if the policy allows it, waits out the
// backoff, and resubmits the call's snapshot through the full chain. When
// attempts are exhausted the last outcome is surfaced unchanged.
func (cfg *RetryConfig) scheduleRetry(ctx context.Context, doer Doer, lastResp *Response, lastErr error) (*Response, error) {
	state := retryStateFor(ctx)
	if state == nil || doer == nil || state.clone == nil {
		return lastResp, lastErr
	}
	if !cfg.Policy.Allow(state.counter) {
		return lastResp, lastErr
	}
	state.counter++

	if delay := cfg.Policy.Delay(state.counter); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, NewCanceledError(ctx.Err())
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, NewCanceledError(err)
	}

	state.resubmitted = true
	return doer.Reissue(ctx, state.clone.Clone())
}

// reissuerFrom returns the call's Doer for hooks that are not handed one.
func reissuerFrom(ctx context.Context) Doer {
	if scope := scopeFrom(ctx); scope != nil {
		return scope.doer
	}
	return nil
}

// retryStateFor returns the call-scoped retry state, creating it on first
// use. Outside a client call there is no scope and retries are disabled.
func retryStateFor(ctx context.Context) *retryState {
	scope := scopeFrom(ctx)
	if scope == nil {
		return nil
	}
	if scope.retry == nil {
		scope.retry = &retryState{}
	}
	return scope.retry
}
