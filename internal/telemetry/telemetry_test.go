package telemetry

import (
	"bytes"
	"context"
	"testing"

	"studyquiz/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "studyquiz-test",
		SampleRatio: 1,
	}, "test", WithWriter(&buf))
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry_test").Start(context.Background(), "generate-questions")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "generate-questions")
	assert.Contains(t, buf.String(), "studyquiz-test")
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.25, clampRatio(0.25))
}
