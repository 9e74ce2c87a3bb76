package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, provider
}

func TestStartServiceSpan(t *testing.T) {
	recorder, provider := newRecordingTracer()
	ctx, span := provider.Tracer(TracerName).Start(context.Background(), "settlement.settle_invoice")
	SetAttribute(span, SpanAttrStrategy, "link_existing")
	SetAttributes(span, SpanAttrInvoiceID, "abc", "line_count", 2)
	span.End()

	require.NotNil(t, ctx)
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "settlement.settle_invoice", spans[0].Name())

	attrs := spans[0].Attributes()
	assert.GreaterOrEqual(t, len(attrs), 3)
}

func TestRecordError(t *testing.T) {
	recorder, provider := newRecordingTracer()
	_, span := provider.Tracer(TracerName).Start(context.Background(), "op")
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestHelpersTolerateNilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttribute(nil, "k", "v")
		SetAttributes(nil, "k", "v")
		RecordError(nil, errors.New("x"))
		SetOK(nil)
		AddEvent(nil, "e")
	})
}
