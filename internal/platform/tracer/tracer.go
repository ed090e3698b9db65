package tracer

import (
	"context"

	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config describes where the API's spans go.
type Config struct {
	ServiceName string
	Environment string
	// Endpoint is an OTLP/gRPC collector address. Empty keeps spans in process.
	Endpoint string
	// SampleRatio applies to root spans; children follow their parent.
	SampleRatio float64
}

type Option func(*options)

type options struct {
	exporter sdktrace.SpanExporter
}

// WithExporter sends spans to exp synchronously instead of dialing Endpoint.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exp }
}

// Setup builds the provider for cfg and installs it, together with W3C
// trace-context and baggage propagation, as the global default. Collector
// failures are logged and leave a provider that records nothing remotely.
// Callers own the returned provider and must Shutdown it to flush spans.
func Setup(ctx context.Context, cfg Config, log *logger.Logger, opts ...Option) *sdktrace.TracerProvider {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(serviceResource(ctx, cfg, log)),
	}
	switch {
	case o.exporter != nil:
		providerOpts = append(providerOpts, sdktrace.WithSyncer(o.exporter))
	case cfg.Endpoint == "":
		log.Info("Trace export disabled: OTEL_EXPORTER_OTLP_ENDPOINT is not set")
	default:
		if exp := dialCollector(ctx, cfg.Endpoint, log); exp != nil {
			providerOpts = append(providerOpts, sdktrace.WithBatcher(exp))
		}
	}

	tp := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("Tracer provider installed",
		zap.String("service_name", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp
}

func serviceResource(ctx context.Context, cfg Config, log *logger.Logger) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.DeploymentEnvironmentKey.String(cfg.Environment),
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		log.Warn("Partial trace resource", zap.Error(err))
	}
	if res == nil {
		return resource.NewSchemaless(attrs...)
	}
	return res
}

// dialCollector returns nil when the exporter cannot be created.
func dialCollector(ctx context.Context, endpoint string, log *logger.Logger) sdktrace.SpanExporter {
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Error("Failed to create OTLP gRPC client", zap.String("endpoint", endpoint), zap.Error(err))
		return nil
	}
	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		log.Error("Failed to create OTLP trace exporter", zap.String("endpoint", endpoint), zap.Error(err))
		_ = conn.Close()
		return nil
	}
	log.Info("Exporting traces over OTLP/gRPC", zap.String("endpoint", endpoint))
	return exp
}
