package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/inventrack/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestStartServiceSpan(t *testing.T) {
	recorder := installRecorder(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "sale", "create",
		telemetry.WithAttribute("quantity", 3),
		telemetry.WithAttribute("item_id", "abc"),
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	telemetry.AddEvent(span, "stock_adjusted", "delta", -3)
	telemetry.RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "sale.create", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("quantity", 3))
	assert.Contains(t, spans[0].Attributes(), attribute.String("item_id", "abc"))
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 2)
	assert.Equal(t, "stock_adjusted", spans[0].Events()[0].Name)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{Enabled: false}, logger)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	tp.EnableSpanProfiles()
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.Same(t, logger, telemetry.BridgeLogger(logger, "inventrack", lp))
	assert.NoError(t, lp.Shutdown(ctx))

	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddress(t *testing.T) {
	_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ApplicationName: "inventrack"}, zap.NewNop())
	assert.Error(t, err)
}
