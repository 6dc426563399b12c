package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// SideEffectWorker owns the outbox worker pool for the lifetime of the process.
type SideEffectWorker struct {
	outbox *events.Outbox
	logger *zap.Logger
}

// StartSideEffectWorker registers the side-effect handlers and starts draining
// the outbox.
func StartSideEffectWorker(outbox *events.Outbox, effects *service.SideEffects, logger *zap.Logger) *SideEffectWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if effects != nil {
		effects.RegisterHandlers(outbox)
	}
	outbox.Start()
	logger.Info("side-effect worker started")
	return &SideEffectWorker{outbox: outbox, logger: logger}
}

// Stop drains queued events, giving up after timeout.
func (w *SideEffectWorker) Stop(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := w.outbox.Shutdown(ctx); err != nil {
		w.logger.Warn("side-effect worker did not drain before deadline", zap.Error(err))
		return
	}
	w.logger.Info("side-effect worker stopped")
}
