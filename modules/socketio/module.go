// Package socketio implements the 'socketio' runner. It connects to a
// Socket.IO namespace, optionally emits an event once connected, and waits
// for a single reply event whose payload becomes the task result.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/taskgrid/internal/ctyconv"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// defaultTimeout bounds the whole exchange when no timeout is given.
const defaultTimeout = 10 * time.Second

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Input defines the arguments for the socketio runner.
type Input struct {
	URL                string    `hcl:"url"`
	Namespace          string    `hcl:"namespace,optional"`
	OnEvent            string    `hcl:"on_event"`
	EmitEvent          string    `hcl:"emit_event,optional"`
	EmitData           cty.Value `hcl:"emit_data,optional"`
	Timeout            string    `hcl:"timeout,optional"`
	InsecureSkipVerify bool      `hcl:"insecure_skip_verify,optional"`
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value cty.Value
	err   error
}

// OnRunSocketIO is the handler for the 'socketio' runner.
func OnRunSocketIO(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	if in.Namespace == "" {
		in.Namespace = "/"
	}
	logger := ctxlog.FromContext(ctx).With("url", in.URL, "onEvent", in.OnEvent, "emitEvent", in.EmitEvent)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	timeout := defaultTimeout
	if in.Timeout != "" {
		parsed, err := time.ParseDuration(in.Timeout)
		if err != nil {
			logger.Warn("Failed to parse timeout, using default", "inputTimeout", in.Timeout, "default", defaultTimeout, "error", err)
		} else {
			timeout = parsed
		}
	}

	emitData, err := ctyconv.ToNative(in.EmitData)
	if err != nil {
		return cty.NilVal, fmt.Errorf("invalid emit_data: %w", err)
	}

	parsedURL, err := url.Parse(in.URL)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return cty.NilVal, fmt.Errorf("URL %q must include a scheme and a host", in.URL)
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetReconnection(false)
	if in.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(in.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	// Only the first outcome is kept; later events must not block the
	// client's event loop.
	finish := func(res opResult) {
		select {
		case done <- res:
		default:
		}
	}

	// --- Event Listeners ---
	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", in.Namespace, "sid", io.Id())
		if in.EmitEvent != "" {
			logger.Info("Emitting event", "event", in.EmitEvent)
			io.Emit(in.EmitEvent, emitData)
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("connection failed: %w", e)
			}
		}
		finish(opResult{err: err})
	})

	io.On(types.EventName(in.OnEvent), func(data ...any) {
		var responseData any
		if len(data) > 0 {
			responseData = data[0]
		}
		v, err := ctyconv.FromNative(responseData)
		if err != nil {
			finish(opResult{err: fmt.Errorf("unsupported payload for event '%s': %w", in.OnEvent, err)})
			return
		}
		finish(opResult{value: cty.ObjectVal(map[string]cty.Value{"response_data": v})})
	})

	// --- Execution Block ---
	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return cty.NilVal, fmt.Errorf("timed out after connecting while waiting for event '%s'", in.OnEvent)
		}
		return cty.NilVal, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		return res.value, res.err
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *handlers.Handlers) {
	r.Register("socketio", &handlers.Handler{
		Input: func() any { return new(Input) },
		Fn:    OnRunSocketIO,
	})
}
