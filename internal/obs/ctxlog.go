package obs

import (
	"context"

	"github.com/rs/zerolog"
)

// WithLogger attaches logger to ctx the way zerolog's own context helper
// does, so call chains that already carry a context (the scheduler, the
// async primitives) can log request-scoped fields without threading a
// *zerolog.Logger parameter through every signature.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext returns the logger attached to ctx, or a disabled logger if
// none was attached — matching zerolog.Ctx's own "never nil" contract.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
