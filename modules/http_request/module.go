// Package http_request implements the 'http_request' runner. It sends one
// HTTP request, optionally retrying transport failures and 5xx responses, and
// exposes the response to dependent tasks.
package http_request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// DefaultTimeout bounds each attempt when the task sets no timeout.
const DefaultTimeout = 30 * time.Second

// Module implements the handlers.Module interface for this package.
type Module struct {
	// Client is shared by every request to reuse connections. Defaults to
	// http.DefaultClient. See NewClient.
	Client *http.Client
	// NewBackOff returns the retry schedule for one task. Defaults to an
	// exponential backoff.
	NewBackOff func() backoff.BackOff
}

// Input defines the arguments for the 'arguments' block.
type Input struct {
	URL     string            `hcl:"url"`
	Method  string            `hcl:"method,optional"`
	Headers map[string]string `hcl:"headers,optional"`
	Body    string            `hcl:"body,optional"`
	// BodyFile uploads a file as the request body, with a Content-Type
	// derived from its extension. It cannot be combined with Body.
	BodyFile string `hcl:"body_file,optional"`
	// Retries is the number of additional attempts after a transport error
	// or a 5xx response.
	Retries int `hcl:"retries,optional"`
	// Timeout bounds each attempt, including reading the body. Defaults to
	// DefaultTimeout.
	Timeout string `hcl:"timeout,optional"`
}

// NewClient returns a client meant to be shared by every http_request task.
// It sets no overall timeout; each attempt carries its own deadline.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// response is the part of an *http.Response exposed to the grid.
type response struct {
	statusCode int
	status     string
	headers    http.Header
	body       string
}

// OnRunHttpRequest is the handler for the 'http_request' runner.
func (m *Module) OnRunHttpRequest(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	if in.Method == "" {
		in.Method = http.MethodGet
	}
	if in.Body != "" && in.BodyFile != "" {
		return cty.NilVal, errors.New("only one of 'body' and 'body_file' may be set")
	}
	if in.Retries < 0 {
		return cty.NilVal, fmt.Errorf("retries must not be negative, got %d", in.Retries)
	}
	timeout := DefaultTimeout
	if in.Timeout != "" {
		parsed, err := time.ParseDuration(in.Timeout)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid timeout %q: %w", in.Timeout, err)
		}
		if parsed <= 0 {
			return cty.NilVal, fmt.Errorf("invalid timeout %q: must be positive", in.Timeout)
		}
		timeout = parsed
	}

	logger := ctxlog.FromContext(ctx).With("method", in.Method, "url", in.URL)
	logger.Info("Making HTTP request")

	var (
		last    *response
		attempt int
	)
	operation := func() error {
		attempt++
		// last only ever holds the response of the latest attempt.
		last = nil
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		resp, err := m.do(reqCtx, in)
		if err != nil {
			logger.Debug("HTTP request attempt failed.", "attempt", attempt, "error", err)
			return err
		}
		last = resp
		if resp.statusCode >= http.StatusInternalServerError {
			logger.Debug("HTTP request attempt got a server error.", "attempt", attempt, "status", resp.status)
			return fmt.Errorf("server responded with %s", resp.status)
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(m.newBackOff(), uint64(in.Retries)), ctx))
	// A server error response is only reported when the final attempt got it
	// and the caller is still waiting for it.
	if err != nil && (last == nil || ctx.Err() != nil) {
		return cty.NilVal, err
	}

	logger.Info("Received HTTP response", "status", last.status, "attempts", attempt)
	return last.value(), nil
}

// do sends a single request and reads the whole response body.
func (m *Module) do(ctx context.Context, in *Input) (*response, error) {
	body, contentType, err := requestBody(in)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if body != nil {
		defer body.Close()
	}

	req, err := http.NewRequestWithContext(ctx, in.Method, in.URL, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if file, ok := body.(*os.File); ok {
		if stat, err := file.Stat(); err == nil {
			req.ContentLength = stat.Size()
		}
	}
	for k, v := range in.Headers {
		req.Header.Set(k, v)
	}

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &response{
		statusCode: resp.StatusCode,
		status:     resp.Status,
		headers:    resp.Header,
		body:       string(bodyBytes),
	}, nil
}

// requestBody opens the body for one attempt.
func requestBody(in *Input) (io.ReadCloser, string, error) {
	switch {
	case in.BodyFile != "":
		file, err := os.Open(in.BodyFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open body file '%s': %w", in.BodyFile, err)
		}
		contentType := mime.TypeByExtension(filepath.Ext(in.BodyFile))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return file, contentType, nil
	case in.Body != "":
		return io.NopCloser(strings.NewReader(in.Body)), "", nil
	default:
		return nil, "", nil
	}
}

func (m *Module) newBackOff() backoff.BackOff {
	if m.NewBackOff != nil {
		return m.NewBackOff()
	}
	return backoff.NewExponentialBackOff()
}

func (r *response) value() cty.Value {
	headers := make(map[string]cty.Value, len(r.headers))
	for k := range r.headers {
		headers[strings.ToLower(k)] = cty.StringVal(r.headers.Get(k))
	}
	headersVal := cty.MapValEmpty(cty.String)
	if len(headers) > 0 {
		headersVal = cty.MapVal(headers)
	}

	return cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(r.statusCode)),
		"status":      cty.StringVal(r.status),
		"headers":     headersVal,
		"body":        cty.StringVal(r.body),
	})
}

// Register registers the handler with the engine.
func (m *Module) Register(r *handlers.Handlers) {
	r.Register("http_request", &handlers.Handler{
		Input: func() any { return new(Input) },
		Fn:    m.OnRunHttpRequest,
	})
}
