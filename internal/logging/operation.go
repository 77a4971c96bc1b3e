package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// clock is replaced in tests.
var clock = time.Now

// Operation times a named unit of work and logs its outcome.
type Operation struct {
	logger *slog.Logger
	start  time.Time
}

// StartOperation derives a logger tagged with the operation name and a fresh
// operation id, stores it on the returned context, and starts the clock.
func StartOperation(ctx context.Context, name string) (context.Context, *Operation) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, logger := With(ctx,
		slog.String("operation", name),
		slog.String("operation_id", uuid.NewString()),
	)
	return ctx, &Operation{logger: logger, start: clock()}
}

// End logs completion. A non-nil err is logged at warn level together with
// the reason code, if any.
func (o *Operation) End(err error, reason string) {
	if o == nil {
		return
	}
	elapsed := clock().Sub(o.start)
	if err != nil {
		attrs := []any{slog.Duration("duration", elapsed), slog.String("error", err.Error())}
		if reason != "" {
			attrs = append(attrs, slog.String("reason", reason))
		}
		o.logger.Warn("operation failed", attrs...)
		return
	}
	o.logger.Info("operation completed", slog.Duration("duration", elapsed))
}
