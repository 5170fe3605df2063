// Package fetch provides a transport-agnostic HTTP client pipeline built
// from interceptors: named bundles of optional request, requestError,
// response and responseError hooks that can observe, rewrite, short-circuit
// and recover exchanges on their way to and from an injected Transport.
//
// Interceptors
//   - Request hooks run in registration order; response hooks run in
//     reverse registration order (configurable via WithResponseOrder).
//   - A request hook may return a Response to short-circuit the exchange;
//     the transport is never invoked for that attempt.
//   - A failed hook is offered first to the same interceptor's error hook,
//     then to later error hooks in the same phase. Unrecovered failures
//     abort the logical call.
//
// Retries
//   - NewRetryInterceptor plugs a retry.Policy into the chain. Non-success
//     responses and transport failures are retried until the policy's
//     MaxRetries is exhausted, resubmitting a snapshot of the original
//     request through the full chain.
//   - Retry state is scoped per logical call, so one client can serve
//     concurrent calls safely.
//   - The backoff wait is cancellable; context cancellation during a wait
//     aborts the call without further sends.
//
// The package ships no transport. Callers provide one, typically a thin
// adapter over their HTTP stack.
package fetch
