package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/engine"
	"github.com/vk/flowgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	resultW  io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	engine   *engine.Engine

	ctx        context.Context
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Logs and print output
// go to outW, the execution result to resultW unless the config names an
// output file. Without explicit modules the core modules are registered.
// Registry validation failures are programmer errors and panic.
func NewApp(outW, resultW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = CoreModules(outW)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "types", reg.Types())
	reg.Use(registry.LogCalls())

	if err := reg.Validate(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	eng, err := engine.New(reg, cfg.engineConfig())
	if err != nil {
		panic(fmt.Errorf("failed to create engine: %w", err))
	}

	return &App{
		outW:     outW,
		resultW:  resultW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		engine:   eng,
		ctx:      ctx,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
