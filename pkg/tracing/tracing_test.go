package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan_DisabledIsNoop(t *testing.T) {
	require.NoError(t, Init(Config{Enabled: false}))
	assert.False(t, Enabled())

	ctx, span := StartSpan(context.Background(), "noop")
	span.End()
	_, _, ok := TraceFields(ctx)
	assert.False(t, ok)
}

func TestStartSpan_ExportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Enabled: true, ServiceName: "fincast-test", Writer: &buf}))
	assert.True(t, Enabled())

	ctx, span := StartSpan(context.Background(), "forecast.run", attribute.String("kind", "lstm"))
	traceID, _, ok := TraceFields(ctx)
	span.End()
	require.True(t, ok)

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "forecast.run")
	assert.Contains(t, buf.String(), traceID)
	assert.False(t, Enabled())
}
