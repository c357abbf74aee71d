package telemetry

import (
	"testing"

	"github.com/aaravmahajanofficial/cart-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(t.Context(), config.Telemetry{ServiceName: "cart-service"}, "test")

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(t.Context()))
}

func TestSetupWithEndpoint(t *testing.T) {
	// the exporter connects lazily, so no collector is needed here
	shutdown, err := Setup(t.Context(), config.Telemetry{
		ServiceName:  "cart-service",
		OTLPEndpoint: "localhost:4318",
		Insecure:     true,
	}, "test")

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(t.Context()))
}

func TestNewResource(t *testing.T) {
	res := newResource("cart-service", "production")

	value, ok := res.Set().Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "cart-service", value.AsString())

	value, ok = res.Set().Value(attribute.Key("deployment.environment"))
	require.True(t, ok)
	assert.Equal(t, "production", value.AsString())
}
