package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// OtelOptions configures the OTLP trace exporter.
type OtelOptions struct {
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// InitProvider initializes the OpenTelemetry SDK with an OTLP gRPC trace exporter.
// With no endpoint configured tracing stays disabled. The returned function
// flushes and shuts the provider down.
func InitProvider(ctx context.Context, opts OtelOptions, logger *slog.Logger) (func(context.Context) error, error) {
	if opts.Endpoint == "" {
		logger.Info("OTLP endpoint not set, OpenTelemetry tracing disabled.")
		return func(context.Context) error { return nil }, nil
	}

	logger.Info("Initializing OTLP exporter.", slog.String("endpoint", opts.Endpoint))

	var grpcOpts []grpc.DialOption
	if opts.Insecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		logger.Warn("Using insecure connection for OTLP exporter.")
	} else {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	conn, err := grpc.NewClient(opts.Endpoint, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
			semconv.ServiceVersionKey.String(opts.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(opts.Environment),
		),
	)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("OpenTelemetry TracerProvider configured.")

	return func(ctx context.Context) error {
		providerErr := tp.Shutdown(ctx)
		connErr := conn.Close()
		return errors.Join(providerErr, connErr)
	}, nil
}
