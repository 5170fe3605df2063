package fetch

import (
	"context"
	"maps"
	nethttp "net/http"
	"time"
)

// Client is the surface for issuing requests through the interceptor chain.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, req *Request) (*Response, error)
	// Interceptors returns the registered interceptors in execution order.
	Interceptors() []Interceptor
}

// Doer re-issues a request through the full interceptor chain of the
// in-flight logical call. It is handed to ResponseError hooks so recovery
// logic (notably the retry interceptor) can resubmit requests.
type Doer interface {
	Reissue(ctx context.Context, req *Request) (*Response, error)
}

// Transport is the injected send primitive. Implementations perform the
// actual network exchange; the chain never interprets the response beyond
// the success/failure classification needed for retries.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Request represents an outbound HTTP request. Requests are immutable by
// convention: hooks either mutate the in-flight value they were handed or
// return a replacement, and retries always start from a Clone taken before
// the first hook ran.
type Request struct {
	Method string
	URL    string
	Header nethttp.Header
	Body   []byte
	// Options carries transport options the chain passes through untouched.
	Options *Options
}

// Options is the pass-through transport option set. The chain does not
// validate or encode these; they are delivered to the Transport as-is.
type Options struct {
	Mode        string
	Credentials string
	Cache       string
	Redirect    string
	Referrer    string
	Integrity   string
}

// Clone returns a deep copy of the request. Header, body and options are
// copied so mutations on the clone never leak back.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := &Request{
		Method: r.Method,
		URL:    r.URL,
	}
	if r.Header != nil {
		c.Header = r.Header.Clone()
	}
	if r.Body != nil {
		c.Body = make([]byte, len(r.Body))
		copy(c.Body, r.Body)
	}
	if r.Options != nil {
		o := *r.Options
		c.Options = &o
	}
	return c
}

// ensureHeader lazily initializes the header map so hooks can set headers
// on zero-value requests.
func (r *Request) ensureHeader() nethttp.Header {
	if r.Header == nil {
		r.Header = make(nethttp.Header)
	}
	return r.Header
}

// Response represents the result of an exchange, produced either by the
// Transport or synthesized by an interceptor to short-circuit the chain.
type Response struct {
	StatusCode int
	Header     nethttp.Header
	Body       []byte
	Stats      Stats
}

// Stats contains execution statistics for the logical call that produced
// the response.
type Stats struct {
	ElapsedTime time.Duration
	// Attempts is the number of transport sends, inclusive of retries.
	// Short-circuited exchanges count zero attempts.
	Attempts int
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// cloneHeaderMap copies a plain string map, used by builder options.
func cloneHeaderMap(h map[string]string) map[string]string {
	c := make(map[string]string, len(h))
	maps.Copy(c, h)
	return c
}
