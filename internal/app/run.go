package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/loader"
	"github.com/vk/flowgrid/internal/result"
)

// ErrRunFailed is returned by Run when the graph was executed but the run did
// not succeed. The result has been written by then.
var ErrRunFailed = errors.New("run did not succeed")

// Run loads the configured graph, executes it and writes the result.
// Cancelling ctx cancels the run.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctxlog.WithLogger(ctx, a.logger)
	ctx = a.ctx
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	g, err := loader.Load(ctx, a.config.GraphPath)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}

	res := a.engine.Run(ctx, g, a.config.Inputs)
	if err := a.writeResult(res); err != nil {
		return err
	}

	a.logger.Debug("App.Run method finished.")
	if !res.Success {
		return fmt.Errorf("%w: %s: %s", ErrRunFailed, res.Error.Kind, res.Error.Message)
	}
	return nil
}

func (a *App) writeResult(res *result.ExecutionResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')

	if a.config.OutputPath != "" {
		if err := os.WriteFile(a.config.OutputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		a.logger.Info("Result written.", "path", a.config.OutputPath)
		return nil
	}
	if _, err := a.resultW.Write(data); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
