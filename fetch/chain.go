package fetch

import (
	"context"
	"errors"
)

// ResponseOrder controls the iteration order of the response phase.
type ResponseOrder int

const (
	// ResponseOrderReverse runs response hooks in reverse registration
	// order, so the first-registered interceptor wraps the others the way
	// nested middleware does. This is the default.
	ResponseOrderReverse ResponseOrder = iota
	// ResponseOrderForward runs response hooks in registration order.
	ResponseOrderForward
)

// chain executes the interceptor pipeline for a single attempt. It holds
// configuration only; all per-call state lives in the call scope.
type chain struct {
	interceptors []Interceptor
	transport    Transport
	order        ResponseOrder
}

// execute runs one attempt: the request phase, the transport send unless a
// hook short-circuited, then the response phase over the result. A
// short-circuit response still flows through the response phase.
func (c *chain) execute(ctx context.Context, doer Doer, req *Request) (*Response, error) {
	result, err := c.runRequestPhase(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := result.Response
	var sendErr error
	if resp == nil {
		resp, sendErr = c.send(ctx, result.Request)
	}

	return c.runResponsePhase(ctx, doer, result.Request, resp, sendErr)
}

// send invokes the transport, counting the attempt and wrapping failures
// with the request that was in flight.
func (c *chain) send(ctx context.Context, req *Request) (*Response, error) {
	if scope := scopeFrom(ctx); scope != nil {
		scope.attempts++
	}
	if err := ctx.Err(); err != nil {
		return nil, NewCanceledError(err)
	}
	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		if IsCanceled(err) {
			return nil, NewCanceledError(err)
		}
		return nil, NewTransportError(req, err)
	}
	return resp, nil
}

// runRequestPhase iterates interceptors in registration order. A hook
// failure is offered first to the same interceptor's RequestError, then
// carried past the remaining request hooks to later RequestError hooks; if
// nobody recovers, the phase fails. A hook returning a Response stops the
// phase immediately.
func (c *chain) runRequestPhase(ctx context.Context, req *Request) (*RequestResult, error) {
	current := req
	var pending error
	pendingName := ""

	for i := range c.interceptors {
		ic := &c.interceptors[i]

		if pending != nil {
			if ic.RequestError == nil {
				continue
			}
			result, err := ic.RequestError(ctx, current, pending)
			if err != nil {
				pending, pendingName = err, ic.Name
				continue
			}
			pending = nil
			if result != nil {
				if result.Response != nil {
					return result, nil
				}
				if result.Request != nil {
					current = result.Request
				}
			}
			continue
		}

		if ic.Request == nil {
			continue
		}
		result, err := ic.Request(ctx, current)
		if err != nil {
			if ic.RequestError != nil {
				result, err = ic.RequestError(ctx, current, err)
			}
			if err != nil {
				pending, pendingName = err, ic.Name
				continue
			}
		}
		if result == nil {
			continue
		}
		if result.Response != nil {
			return result, nil
		}
		if result.Request != nil {
			current = result.Request
		}
	}

	if pending != nil {
		return nil, c.phaseError(pendingName, "request", pending)
	}
	return ContinueWith(current), nil
}

// runResponsePhase carries a response-or-failure through the interceptors,
// by default in reverse registration order. ResponseError hooks see the
// in-flight request and a Doer for re-issuing; an unrecovered failure is
// returned to the caller.
func (c *chain) runResponsePhase(ctx context.Context, doer Doer, req *Request, resp *Response, pending error) (*Response, error) {
	pendingName := ""
	n := len(c.interceptors)

	for i := 0; i < n; i++ {
		ic := &c.interceptors[c.responseIndex(i, n)]

		if pending != nil {
			if ic.ResponseError == nil {
				continue
			}
			recovered, err := ic.ResponseError(ctx, doer, req, pending)
			if err != nil {
				pending, pendingName = err, ic.Name
				continue
			}
			// Recovery requires a response; a nil/nil return only observes.
			if recovered != nil {
				pending = nil
				resp = recovered
			}
			continue
		}

		if ic.Response == nil {
			continue
		}
		replaced, err := ic.Response(ctx, req, resp)
		if err != nil {
			if ic.ResponseError != nil {
				replaced, err = ic.ResponseError(ctx, doer, req, err)
			}
			if err != nil {
				pending, pendingName = err, ic.Name
				continue
			}
		}
		if replaced != nil {
			resp = replaced
		}
	}

	if pending != nil {
		return nil, c.phaseError(pendingName, "response", pending)
	}
	return resp, nil
}

// responseIndex maps the loop position to an interceptor index according to
// the configured response order.
func (c *chain) responseIndex(i, n int) int {
	if c.order == ResponseOrderForward {
		return i
	}
	return n - 1 - i
}

// phaseError wraps an unrecovered hook failure unless it is already a
// classified pipeline error, which must surface unchanged.
func (c *chain) phaseError(name, phase string, err error) error {
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return err
	}
	return NewInterceptorError(name, phase, err)
}
