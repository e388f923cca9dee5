package http_request

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func newModule(srv *httptest.Server) *Module {
	return &Module{
		Client:     srv.Client(),
		NewBackOff: func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) },
	}
}

func TestOnRunHttpRequest(t *testing.T) {
	t.Run("GET by default", func(t *testing.T) {
		// --- Arrange ---
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "token", r.Header.Get("X-Auth"))
			w.Header().Set("X-Request-Id", "abc")
			_, _ = io.WriteString(w, "hello")
		}))
		defer srv.Close()

		// --- Act ---
		got, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{
			URL:     srv.URL,
			Headers: map[string]string{"X-Auth": "token"},
		})

		// --- Assert ---
		require.NoError(t, err)
		assert.True(t, got.GetAttr("status_code").RawEquals(cty.NumberIntVal(200)))
		assert.Equal(t, "hello", got.GetAttr("body").AsString())
		assert.Equal(t, "abc", got.GetAttr("headers").Index(cty.StringVal("x-request-id")).AsString())
	})

	t.Run("POST with body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(body)
		}))
		defer srv.Close()

		got, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{
			URL: srv.URL, Method: http.MethodPost, Body: `{"a":1}`,
		})

		require.NoError(t, err)
		assert.Equal(t, "201 Created", got.GetAttr("status").AsString())
		assert.Equal(t, `{"a":1}`, got.GetAttr("body").AsString())
	})

	t.Run("uploads a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0o600))

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, int64(11), r.ContentLength)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		got, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{
			URL: srv.URL, Method: http.MethodPut, BodyFile: path,
		})

		require.NoError(t, err)
		assert.True(t, got.GetAttr("status_code").RawEquals(cty.NumberIntVal(200)))
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = io.WriteString(w, "finally")
		}))
		defer srv.Close()

		got, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{URL: srv.URL, Retries: 3})

		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, "finally", got.GetAttr("body").AsString())
	})

	t.Run("returns the last server error response when retries run out", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		got, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{URL: srv.URL, Retries: 1})

		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
		assert.True(t, got.GetAttr("status_code").RawEquals(cty.NumberIntVal(503)))
	})

	t.Run("server error followed by a dropped connection fails", func(t *testing.T) {
		// --- Arrange ---
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			conn, _, err := w.(http.Hijacker).Hijack()
			if assert.NoError(t, err) {
				_ = conn.Close()
			}
		}))
		defer srv.Close()

		// --- Act ---
		got, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{URL: srv.URL, Retries: 1})

		// --- Assert ---
		require.Error(t, err, "a stale 500 must not be reported as the result, got %#v", got)
		assert.ErrorContains(t, err, "failed to execute request")
		assert.GreaterOrEqual(t, calls.Load(), int32(2))
	})

	t.Run("slow server fails after the timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		start := time.Now()
		_, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{URL: srv.URL, Timeout: "50ms"})

		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("timeout applies to each attempt", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				<-r.Context().Done()
				return
			}
			_, _ = io.WriteString(w, "second try")
		}))
		defer srv.Close()

		got, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{URL: srv.URL, Timeout: "50ms", Retries: 1})

		require.NoError(t, err)
		assert.Equal(t, "second try", got.GetAttr("body").AsString())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		got, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{URL: srv.URL, Retries: 5})

		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
		assert.True(t, got.GetAttr("status_code").RawEquals(cty.NumberIntVal(404)))
	})

	t.Run("invalid input", func(t *testing.T) {
		m := &Module{}
		_, err := m.OnRunHttpRequest(context.Background(), &Input{URL: "http://x", Body: "a", BodyFile: "b"})
		assert.EqualError(t, err, "only one of 'body' and 'body_file' may be set")

		_, err = m.OnRunHttpRequest(context.Background(), &Input{URL: "http://x", Retries: -1})
		assert.EqualError(t, err, "retries must not be negative, got -1")

		_, err = m.OnRunHttpRequest(context.Background(), &Input{URL: "http://x", BodyFile: filepath.Join(t.TempDir(), "missing")})
		assert.ErrorIs(t, err, os.ErrNotExist)

		_, err = m.OnRunHttpRequest(context.Background(), &Input{URL: "http://x", Timeout: "soon"})
		assert.ErrorContains(t, err, `invalid timeout "soon"`)

		_, err = m.OnRunHttpRequest(context.Background(), &Input{URL: "http://x", Timeout: "0s"})
		assert.EqualError(t, err, `invalid timeout "0s": must be positive`)

		_, err = m.OnRunHttpRequest(context.Background(), &Input{URL: "://bad"})
		assert.ErrorContains(t, err, "failed to create request")
	})

	t.Run("transport errors fail after retries", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := newModule(srv).OnRunHttpRequest(context.Background(), &Input{URL: url, Retries: 2})
		assert.ErrorContains(t, err, "failed to execute request")
	})
}

func TestNewClient(t *testing.T) {
	client := NewClient()

	assert.Zero(t, client.Timeout, "attempts carry their own deadline")
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 100, transport.MaxIdleConns)
	assert.Equal(t, 10, transport.MaxIdleConnsPerHost)
	assert.Equal(t, 90*time.Second, transport.IdleConnTimeout)
}
