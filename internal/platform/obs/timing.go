package obs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const RequestIDKey ctxKey = "request_id"

// WithRequestID stores the request id used to correlate log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Logger returns the logger attached to ctx, or the global logger.
func Logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

// Time starts a timer for op; call the returned func with the operation's
// error pointer to log and record the duration.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	logger := Logger(ctx)
	// a ctx logger from the request middleware already carries request_id
	if id := RequestID(ctx); id != "" && zerolog.Ctx(ctx).GetLevel() == zerolog.Disabled {
		l := logger.With().Str("request_id", id).Logger()
		logger = &l
	}

	return func(errp *error) {
		dur := time.Since(start)
		operationDuration.WithLabelValues(name).Observe(dur.Seconds())

		if errp != nil && *errp != nil {
			logger.Warn().
				Str("op", name).
				Int64("dur_ms", dur.Milliseconds()).
				Err(*errp).
				Msg("operation failed")
			return
		}
		logger.Debug().
			Str("op", name).
			Int64("dur_ms", dur.Milliseconds()).
			Msg("operation done")
	}
}
