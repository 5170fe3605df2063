package fetch

import (
	"context"
	nethttp "net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rmja/fetch-client/logger"
	"github.com/rmja/fetch-client/retry"
)

const (
	// DefaultMaxPayloadLogBytes caps logged body sizes for the built-in
	// logging interceptor.
	DefaultMaxPayloadLogBytes = 2048
)

// client implements the Client interface.
type client struct {
	chain *chain
}

// doerFunc adapts the client's attempt loop to the Doer interface handed
// to response-error hooks.
type doerFunc func(ctx context.Context, req *Request) (*Response, error)

func (f doerFunc) Reissue(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// NewClient creates a client with the given transport and no interceptors.
func NewClient(log logger.Logger, transport Transport) Client {
	return NewBuilder(log).WithTransport(transport).Build()
}

// Builder provides a fluent interface for configuring the fetch client.
type Builder struct {
	log            logger.Logger
	transport      Transport
	interceptors   []Interceptor
	order          ResponseOrder
	retryCfg       *RetryConfig
	defaultHeaders map[string]string
	basicAuth      *struct{ username, password string }
	limiter        *rate.Limiter
	logRequests    bool
}

// NewBuilder creates a new client builder.
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		log:            log,
		defaultHeaders: make(map[string]string),
	}
}

// WithTransport sets the send primitive. Required.
func (b *Builder) WithTransport(transport Transport) *Builder {
	b.transport = transport
	return b
}

// WithInterceptor appends an interceptor. Registration order is request
// phase order.
func (b *Builder) WithInterceptor(interceptor Interceptor) *Builder {
	b.interceptors = append(b.interceptors, interceptor)
	return b
}

// WithRetry enables the retry interceptor with the given policy. It is
// registered ahead of all other interceptors.
func (b *Builder) WithRetry(cfg RetryConfig) *Builder {
	b.retryCfg = &cfg
	return b
}

// WithRetries enables retrying with a fixed delay, the common case.
func (b *Builder) WithRetries(maxRetries int, interval time.Duration) *Builder {
	return b.WithRetry(RetryConfig{
		Policy: retry.Policy{MaxRetries: maxRetries, Interval: interval},
	})
}

// WithResponseOrder overrides the response-phase iteration order.
func (b *Builder) WithResponseOrder(order ResponseOrder) *Builder {
	b.order = order
	return b
}

// WithDefaultHeader adds a header applied to every request that does not
// already set it.
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.defaultHeaders[key] = value
	return b
}

// WithBasicAuth sets basic authentication credentials for all requests.
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.basicAuth = &struct{ username, password string }{username, password}
	return b
}

// WithRateLimit throttles outbound requests.
func (b *Builder) WithRateLimit(limit rate.Limit, burst int) *Builder {
	b.limiter = rate.NewLimiter(limit, burst)
	return b
}

// WithRequestLogging enables the built-in logging interceptor.
func (b *Builder) WithRequestLogging() *Builder {
	b.logRequests = true
	return b
}

// Build assembles the client. Built-in interceptors are registered ahead
// of user interceptors, with retry outermost so it observes the original
// request and the final response-phase outcome.
func (b *Builder) Build() Client {
	var interceptors []Interceptor
	if b.retryCfg != nil {
		interceptors = append(interceptors, NewRetryInterceptor(*b.retryCfg))
	}
	if b.logRequests {
		interceptors = append(interceptors, LoggingInterceptor(b.log, DefaultMaxPayloadLogBytes))
	}
	if b.limiter != nil {
		interceptors = append(interceptors, RateLimitInterceptor(b.limiter))
	}
	if len(b.defaultHeaders) > 0 {
		interceptors = append(interceptors, HeaderInterceptor(b.defaultHeaders))
	}
	if b.basicAuth != nil {
		interceptors = append(interceptors, BasicAuthInterceptor(b.basicAuth.username, b.basicAuth.password))
	}
	interceptors = append(interceptors, b.interceptors...)

	return &client{
		chain: &chain{
			interceptors: interceptors,
			transport:    b.transport,
			order:        b.order,
		},
	}
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.withMethod(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.withMethod(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.withMethod(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.withMethod(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.withMethod(ctx, nethttp.MethodDelete, req)
}

func (c *client) withMethod(ctx context.Context, method string, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewValidationError("request cannot be nil", "request")
	}
	r := *req
	r.Method = method
	return c.Do(ctx, &r)
}

// Do executes one logical call: it opens a fresh call scope, runs the full
// interceptor chain, and stamps execution stats on the final response.
// Retries initiated by the retry interceptor re-enter the same scope.
func (c *client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, scope := newCallScope(ctx)
	scope.doer = doerFunc(c.execute)

	resp, err := c.execute(ctx, req)
	if resp != nil {
		resp.Stats = Stats{
			ElapsedTime: time.Since(start),
			Attempts:    scope.attempts,
		}
	}
	return resp, err
}

// Interceptors returns a copy of the registered interceptors in request
// phase order.
func (c *client) Interceptors() []Interceptor {
	out := make([]Interceptor, len(c.chain.interceptors))
	copy(out, c.chain.interceptors)
	return out
}

// execute runs one attempt through the chain. Resubmissions re-enter here
// so the call scope survives across attempts.
func (c *client) execute(ctx context.Context, req *Request) (*Response, error) {
	return c.chain.execute(ctx, doerFunc(c.execute), req)
}

func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	if c.chain.transport == nil {
		return NewValidationError("client has no transport", "transport")
	}
	if req.Method == "" {
		req.Method = nethttp.MethodGet
	}
	return nil
}
