package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used for every span the service creates.
const TracerName = "backend-scaffold"

// GetTracer returns the service tracer from the current global provider.
// It is looked up on each call so a provider installed after startup
// (or by a test) takes effect.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "supervisor.create")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
