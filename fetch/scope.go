package fetch

import "context"

// callScope holds the state of one logical call: the attempt counter used
// for stats and the retry interceptor's per-call state. A fresh scope is
// created by Client.Do and travels with the call's context, so concurrent
// calls through one client never share mutable state. Stages of a single
// call run sequentially, so no locking is needed.
type callScope struct {
	attempts int
	retry    *retryState
	// doer re-enters the full chain of this call; set once by the client
	// before the first attempt.
	doer Doer
}

// retryState is the retry interceptor's call-scoped state. It is never
// stored on the shared retry configuration.
type retryState struct {
	// counter is the number of retries performed so far for this call.
	counter int
	// clone is the snapshot of the request taken before the first hook of
	// the cycle ran; retries resend this original intent.
	clone *Request
	// resubmitted marks a request-phase pass that belongs to a retry, so
	// the interceptor applies BeforeRetry instead of re-capturing the
	// snapshot.
	resubmitted bool
}

type scopeKey struct{}

// newCallScope opens a scope for a logical call.
func newCallScope(ctx context.Context) (context.Context, *callScope) {
	scope := &callScope{}
	return context.WithValue(ctx, scopeKey{}, scope), scope
}

// scopeFrom returns the scope of the in-flight logical call, or nil when
// the chain is executed outside a client call.
func scopeFrom(ctx context.Context) *callScope {
	scope, _ := ctx.Value(scopeKey{}).(*callScope)
	return scope
}
