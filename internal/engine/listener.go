package engine

import (
	"log/slog"

	"github.com/vk/flowgrid/internal/nodestore"
)

// logListener writes every node transition to the run logger.
type logListener struct {
	logger *slog.Logger
}

func (l logListener) OnTransition(rec nodestore.ExecutionRecord) {
	attrs := []any{"node", rec.NodeID, "type", rec.Type, "status", rec.Status}
	switch rec.Status {
	case nodestore.StatusSkipped:
		if rec.Error != nil {
			attrs = append(attrs, "reason", rec.Error.Message)
		}
		l.logger.Warn("Node skipped.", attrs...)
	case nodestore.StatusSucceeded, nodestore.StatusFailed:
		l.logger.Info("Node finished.", append(attrs, "duration_ms", rec.DurationMs)...)
	default:
		l.logger.Debug("Node transition.", attrs...)
	}
}
