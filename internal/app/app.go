package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/handlers"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	handlers *handlers.Handlers
	loader   *config.Loader

	ctx        context.Context
	httpServer *http.Server
}

// Option customizes an App.
type Option func(*appOptions)

type appOptions struct {
	logW     io.Writer
	handlers *handlers.Handlers
}

// WithLogWriter sends log output to w instead of the report writer.
func WithLogWriter(w io.Writer) Option {
	return func(o *appOptions) { o.logW = w }
}

// WithHandlers replaces the built-in runners with h.
func WithHandlers(h *handlers.Handlers) Option {
	return func(o *appOptions) { o.handlers = h }
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and handler
// registry. Reports are written to outW.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	o := appOptions{logW: outW}
	for _, opt := range opts {
		opt(&o)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, o.logW)
	logger.Debug("Logger configured successfully.")

	h := o.handlers
	if h == nil {
		h = handlers.New()
		modules := CoreModules(outW)
		for _, mod := range modules {
			mod.Register(h)
		}
		logger.Debug("All Go modules registered.", "count", len(modules))
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		handlers: h,
		loader:   config.NewLoader(),
		ctx:      ctxlog.WithLogger(context.Background(), logger),
	}
}

// Handlers returns the application's runner registry. This is primarily for testing.
func (a *App) Handlers() *handlers.Handlers {
	return a.handlers
}
