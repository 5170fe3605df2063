package fetch

import (
	"context"
	nethttp "net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmja/fetch-client/logger"
)

func TestNewClient(t *testing.T) {
	c := NewClient(logger.Nop(), okTransport(200))
	assert.NotNil(t, c)
}

func TestBuilder(t *testing.T) {
	t.Run("default configuration", func(t *testing.T) {
		c := NewBuilder(logger.Nop()).WithTransport(okTransport(200)).Build()
		assert.NotNil(t, c)
	})

	t.Run("nil logger falls back to nop", func(t *testing.T) {
		c := NewBuilder(nil).WithTransport(okTransport(200)).Build()
		_, err := c.Get(context.Background(), newTestRequest())
		assert.NoError(t, err)
	})

	t.Run("with retries", func(t *testing.T) {
		c := NewBuilder(logger.Nop()).
			WithTransport(okTransport(200)).
			WithRetries(3, 2*time.Second).
			Build()
		assert.NotNil(t, c)
	})

	t.Run("with rate limit", func(t *testing.T) {
		c := NewBuilder(logger.Nop()).
			WithTransport(okTransport(200)).
			WithRateLimit(100, 10).
			Build()
		_, err := c.Get(context.Background(), newTestRequest())
		assert.NoError(t, err)
	})
}

func TestClientMethods(t *testing.T) {
	var method string
	c := NewBuilder(logger.Nop()).
		WithTransport(TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
			method = req.Method
			return &Response{StatusCode: 200}, nil
		})).
		Build()

	tests := []struct {
		name     string
		call     func(context.Context, *Request) (*Response, error)
		expected string
	}{
		{"get", c.Get, nethttp.MethodGet},
		{"post", c.Post, nethttp.MethodPost},
		{"put", c.Put, nethttp.MethodPut},
		{"patch", c.Patch, nethttp.MethodPatch},
		{"delete", c.Delete, nethttp.MethodDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call(context.Background(), newTestRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, method)
		})
	}
}

func TestMethodHelpersDoNotMutateCallerRequest(t *testing.T) {
	c := NewClient(logger.Nop(), okTransport(200))
	req := newTestRequest()

	_, err := c.Post(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, req.Method)
}

func TestDoDefaultsToGet(t *testing.T) {
	var method string
	c := NewBuilder(logger.Nop()).
		WithTransport(TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
			method = req.Method
			return &Response{StatusCode: 200}, nil
		})).
		Build()

	_, err := c.Do(context.Background(), newTestRequest())
	require.NoError(t, err)
	assert.Equal(t, nethttp.MethodGet, method)
}

func TestValidation(t *testing.T) {
	c := NewClient(logger.Nop(), okTransport(200))

	t.Run("nil request", func(t *testing.T) {
		_, err := c.Do(context.Background(), nil)
		assert.True(t, IsErrorType(err, ValidationError))
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := c.Do(context.Background(), &Request{})
		assert.True(t, IsErrorType(err, ValidationError))
	})

	t.Run("missing transport", func(t *testing.T) {
		bare := NewBuilder(logger.Nop()).Build()
		_, err := bare.Do(context.Background(), newTestRequest())
		assert.True(t, IsErrorType(err, ValidationError))
	})
}

func TestStats(t *testing.T) {
	c := NewClient(logger.Nop(), TransportFunc(func(_ context.Context, _ *Request) (*Response, error) {
		time.Sleep(5 * time.Millisecond)
		return &Response{StatusCode: 200}, nil
	}))

	resp, err := c.Get(context.Background(), newTestRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Stats.Attempts)
	assert.GreaterOrEqual(t, resp.Stats.ElapsedTime, 5*time.Millisecond)
}

func TestDefaultHeaders(t *testing.T) {
	var seen nethttp.Header
	c := NewBuilder(logger.Nop()).
		WithTransport(TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
			seen = req.Header.Clone()
			return &Response{StatusCode: 200}, nil
		})).
		WithDefaultHeader("X-Api-Key", "secret").
		WithDefaultHeader("User-Agent", "fetch-client").
		Build()

	t.Run("applied when absent", func(t *testing.T) {
		_, err := c.Get(context.Background(), newTestRequest())
		require.NoError(t, err)
		assert.Equal(t, "secret", seen.Get("X-Api-Key"))
		assert.Equal(t, "fetch-client", seen.Get("User-Agent"))
	})

	t.Run("request headers win", func(t *testing.T) {
		req := newTestRequest()
		req.Header.Set("User-Agent", "custom")
		_, err := c.Get(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "custom", seen.Get("User-Agent"))
	})
}

func TestBasicAuth(t *testing.T) {
	var auth string
	c := NewBuilder(logger.Nop()).
		WithTransport(TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
			auth = req.Header.Get("Authorization")
			return &Response{StatusCode: 200}, nil
		})).
		WithBasicAuth("user", "pass").
		Build()

	_, err := c.Get(context.Background(), newTestRequest())
	require.NoError(t, err)
	// base64("user:pass")
	assert.Equal(t, "Basic dXNlcjpwYXNz", auth)
}

func TestRequestClone(t *testing.T) {
	req := &Request{
		Method: nethttp.MethodPost,
		URL:    testURL,
		Header: nethttp.Header{"X-One": []string{"a", "b"}},
		Body:   []byte("payload"),
		Options: &Options{
			Mode:      "cors",
			Integrity: "sha256-abc",
		},
	}

	clone := req.Clone()
	clone.Header.Set("X-One", "mutated")
	clone.Body[0] = 'X'
	clone.Options.Mode = "no-cors"

	assert.Equal(t, []string{"a", "b"}, req.Header.Values("X-One"))
	assert.Equal(t, byte('p'), req.Body[0])
	assert.Equal(t, "cors", req.Options.Mode)
	assert.Equal(t, "sha256-abc", clone.Options.Integrity)
}

func TestResponseIsSuccess(t *testing.T) {
	assert.True(t, (&Response{StatusCode: 200}).IsSuccess())
	assert.True(t, (&Response{StatusCode: 204}).IsSuccess())
	assert.False(t, (&Response{StatusCode: 199}).IsSuccess())
	assert.False(t, (&Response{StatusCode: 301}).IsSuccess())
	assert.False(t, (&Response{StatusCode: 500}).IsSuccess())
}

func TestSendCountsAttempts(t *testing.T) {
	var sends atomic.Int64
	c := NewBuilder(logger.Nop()).
		WithTransport(countingTransport(500, &sends)).
		WithRetries(2, 0).
		Build()

	resp, err := c.Get(context.Background(), newTestRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Stats.Attempts)
}
