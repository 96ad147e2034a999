package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInit_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{Enabled: true, Writer: &buf, RunID: "run-1"})
	require.NoError(t, err)

	_, span := Tracer("test").Start(ctx, "timestep")
	span.SetAttributes(attribute.Int("step", 3))
	span.End()

	require.NoError(t, shutdown(ctx))
	assert.Contains(t, buf.String(), `"Name":"timestep"`)
	assert.Contains(t, buf.String(), "run-1")
}

func TestInit_DisabledRecordsNothing(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{})
	require.NoError(t, err)
	defer shutdown(ctx)

	_, span := Tracer("test").Start(ctx, "timestep")
	assert.False(t, span.IsRecording())
	span.End()
}
