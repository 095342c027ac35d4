package tracing

import (
	"context"
	"testing"

	"oracle/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitInstallsProvider(t *testing.T) {
	ctx := context.Background()
	shutdown := Init(ctx, logger.Nop(), "oracle-test", "")
	require.NotNil(t, shutdown)

	_, span := otel.Tracer("test").Start(ctx, "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, shutdown(ctx))
}
