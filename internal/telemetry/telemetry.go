package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/vanshika/kintrace/internal/config"
)

// TracerName is the instrumentation scope of spans opened by this module.
const TracerName = "github.com/vanshika/kintrace"

// Tracer returns the tracer of the globally installed provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Setup installs a tracer provider exporting spans to w (stdout when nil) if
// tracing is enabled. The returned shutdown flushes pending spans and must be
// called before exit. When tracing is disabled the global no-op provider stays
// in place and shutdown does nothing.
func Setup(ctx context.Context, cfg config.TracingConfig, w io.Writer) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}
	if err := ctx.Err(); err != nil {
		return noop, err
	}
	if w == nil {
		w = os.Stdout
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return noop, fmt.Errorf("create span exporter: %w", err)
	}

	res := resource.NewWithAttributes("", attribute.String("service.name", cfg.ServiceName))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
