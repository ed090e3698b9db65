package tracer

import (
	"context"
	"testing"

	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func TestSetup_ExportsSpansWithServiceResource(t *testing.T) {
	restoreGlobals(t)
	exp := tracetest.NewInMemoryExporter()
	tp := Setup(context.Background(), Config{
		ServiceName: "edhf-api",
		Environment: "test",
		SampleRatio: 1,
	}, logger.NewNop(), WithExporter(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := otel.Tracer("deliveries").Start(context.Background(), "DeliveryService.Create")
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "DeliveryService.Create", spans[0].Name)

	attrs := spans[0].Resource.Attributes()
	assert.Contains(t, attrs, semconv.ServiceNameKey.String("edhf-api"))
	assert.Contains(t, attrs, semconv.DeploymentEnvironmentKey.String("test"))
}

func TestSetup_ZeroRatioDropsRootSpans(t *testing.T) {
	restoreGlobals(t)
	exp := tracetest.NewInMemoryExporter()
	tp := Setup(context.Background(), Config{ServiceName: "edhf-api"}, logger.NewNop(), WithExporter(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := otel.Tracer("riders").Start(context.Background(), "RiderService.UpdateLocation")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()
	assert.Empty(t, exp.GetSpans())
}

func TestSetup_NoEndpointStillPropagates(t *testing.T) {
	restoreGlobals(t)
	tp := Setup(context.Background(), Config{ServiceName: "edhf-api", SampleRatio: 1}, logger.NewNop())
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := otel.Tracer("accounts").Start(context.Background(), "AccountService.Login")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	assert.NotEmpty(t, carrier.Get("traceparent"))
}
