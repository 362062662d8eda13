package state

import (
	"context"
	"log/slog"
	"time"
)

// Logger returns middleware that records each dispatched action. Rejections
// are logged at warn level with their error; everything else at debug.
func Logger[S any](logger *slog.Logger) Middleware[S] {
	return func(_ func() S, next DispatchFunc) DispatchFunc {
		if logger == nil {
			return next
		}
		return func(action Action) {
			start := time.Now()
			next(action)
			attrs := []slog.Attr{
				slog.String("action", action.ActionType()),
				slog.Duration("elapsed", time.Since(start)),
			}
			level := slog.LevelDebug
			switch a := action.(type) {
			case Rejected:
				level = slog.LevelWarn
				attrs = append(attrs, slog.Uint64("request_id", a.RequestID))
				if a.Err != nil {
					attrs = append(attrs, slog.String("error", a.Err.Error()))
				}
			case Pending:
				attrs = append(attrs, slog.Uint64("request_id", a.RequestID))
			}
			logger.LogAttrs(context.Background(), level, "action dispatched", attrs...)
		}
	}
}
