package obs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the package-wide otel tracer for callers that want spans
// around SPIRAL operations; the type checker, lowering and the schedulers
// do not open spans themselves. SPIRAL doesn't
// ship an exporter of its own (Non-goal: no bundled observability
// backend) — callers wire a real exporter via the standard otel SDK
// global TracerProvider; absent one, otel's noop tracer is used and spans
// are free no-ops.
var Tracer = otel.Tracer("github.com/spiralir/spiral")

// StartSpan is a thin convenience wrapper kept so call sites read like
// the domain operation they wrap rather than raw otel boilerplate.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, name)
}
