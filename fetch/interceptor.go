package fetch

import (
	"context"
	"encoding/base64"

	"golang.org/x/time/rate"

	"github.com/rmja/fetch-client/logger"
	"github.com/rmja/fetch-client/trace"
)

// RequestResult is the typed outcome of a request-phase hook: either a
// (possibly replaced) request to continue with, or a response that
// short-circuits the exchange. Exactly one field is set.
type RequestResult struct {
	Request  *Request
	Response *Response
}

// ContinueWith continues the request phase with req.
func ContinueWith(req *Request) *RequestResult {
	return &RequestResult{Request: req}
}

// ShortCircuit resolves the exchange with resp, bypassing the transport.
func ShortCircuit(resp *Response) *RequestResult {
	return &RequestResult{Response: resp}
}

// RequestHook observes or rewrites the in-flight request. Returning nil is
// a pass-through.
type RequestHook func(ctx context.Context, req *Request) (*RequestResult, error)

// RequestErrorHook recovers a failed request phase. Returning a result
// resumes the chain as if no error occurred; returning an error keeps the
// failure propagating.
type RequestErrorHook func(ctx context.Context, req *Request, err error) (*RequestResult, error)

// ResponseHook observes or replaces the response. Returning nil is a
// pass-through.
type ResponseHook func(ctx context.Context, req *Request, resp *Response) (*Response, error)

// ResponseErrorHook recovers a failed response phase (including transport
// failures). The Doer re-enters the full chain so recovery may re-issue
// requests.
type ResponseErrorHook func(ctx context.Context, client Doer, req *Request, err error) (*Response, error)

// Interceptor is a named bundle of optional hooks. Absent hooks are
// pass-through.
type Interceptor struct {
	Name          string
	Request       RequestHook
	RequestError  RequestErrorHook
	Response      ResponseHook
	ResponseError ResponseErrorHook
}

// HeaderInterceptor applies default headers to requests that do not already
// set them. Request-specific headers win over defaults.
func HeaderInterceptor(defaults map[string]string) Interceptor {
	defaults = cloneHeaderMap(defaults)
	return Interceptor{
		Name: "headers",
		Request: func(_ context.Context, req *Request) (*RequestResult, error) {
			h := req.ensureHeader()
			for key, value := range defaults {
				if h.Get(key) == "" {
					h.Set(key, value)
				}
			}
			return ContinueWith(req), nil
		},
	}
}

// BasicAuthInterceptor sets an Authorization header with basic credentials
// unless the request already carries one.
func BasicAuthInterceptor(username, password string) Interceptor {
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return Interceptor{
		Name: "basicauth",
		Request: func(_ context.Context, req *Request) (*RequestResult, error) {
			h := req.ensureHeader()
			if h.Get("Authorization") == "" {
				h.Set("Authorization", "Basic "+credentials)
			}
			return ContinueWith(req), nil
		},
	}
}

// TraceInterceptor propagates trace identifiers onto outbound requests:
// X-Request-ID from the context (generated when absent) and a W3C
// traceparent header.
func TraceInterceptor() Interceptor {
	return Interceptor{
		Name: "trace",
		Request: func(ctx context.Context, req *Request) (*RequestResult, error) {
			h := req.ensureHeader()
			if h.Get(trace.HeaderRequestID) == "" {
				h.Set(trace.HeaderRequestID, trace.EnsureID(ctx))
			}
			if h.Get(trace.HeaderTraceParent) == "" {
				tp, ok := trace.ParentFromContext(ctx)
				if !ok {
					tp = trace.GenerateParent()
				}
				h.Set(trace.HeaderTraceParent, tp)
			}
			return ContinueWith(req), nil
		},
	}
}

// RateLimitInterceptor delays requests to respect the limiter. The wait is
// cancellable through the request context.
func RateLimitInterceptor(limiter *rate.Limiter) Interceptor {
	return Interceptor{
		Name: "ratelimit",
		Request: func(ctx context.Context, req *Request) (*RequestResult, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, NewCanceledError(err)
			}
			return ContinueWith(req), nil
		},
	}
}

// LoggingInterceptor logs outbound requests, inbound responses and
// unrecovered failures. Bodies are truncated to maxPayloadBytes; zero
// disables payload logging.
func LoggingInterceptor(log logger.Logger, maxPayloadBytes int) Interceptor {
	payload := func(body []byte) []byte {
		if maxPayloadBytes <= 0 || len(body) == 0 {
			return nil
		}
		if len(body) > maxPayloadBytes {
			return body[:maxPayloadBytes]
		}
		return body
	}
	return Interceptor{
		Name: "logging",
		Request: func(_ context.Context, req *Request) (*RequestResult, error) {
			logEvent := log.Info().
				Str("direction", "outbound").
				Str("method", req.Method).
				Str("url", req.URL)
			if body := payload(req.Body); body != nil {
				logEvent = logEvent.Bytes("body", body)
			}
			logEvent.Msg("fetch client request")
			return nil, nil
		},
		Response: func(_ context.Context, req *Request, resp *Response) (*Response, error) {
			logEvent := log.Info().
				Str("direction", "inbound").
				Str("url", req.URL).
				Int("status", resp.StatusCode)
			if body := payload(resp.Body); body != nil {
				logEvent = logEvent.Bytes("body", body)
			}
			logEvent.Msg("fetch client response")
			return nil, nil
		},
		ResponseError: func(_ context.Context, _ Doer, req *Request, err error) (*Response, error) {
			log.Error().
				Str("url", req.URL).
				Err(err).
				Msg("fetch client exchange failed")
			// Observed, not recovered
			return nil, err
		},
	}
}
