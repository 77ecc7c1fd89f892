package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/utils"
)

// SetupTracing installs a trace provider when OTEL_TRACES_ENABLED is truthy.
// The returned shutdown func is a no-op when tracing is off.
func SetupTracing(log *logger.Logger) (func(context.Context) error, error) {
	enabled := utils.GetEnv("OTEL_TRACES_ENABLED", "false", log)
	if enabled != "true" && enabled != "1" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	log.Info("tracing enabled", "exporter", "stdout")
	return tp.Shutdown, nil
}
