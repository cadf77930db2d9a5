package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointMetrics(t *testing.T) {
	t.Run("successes", func(t *testing.T) {
		m := &endpointMetrics{}

		m.recordSuccess(100)
		m.recordSuccess(200)

		assert.Equal(t, int64(2), m.totalRequests.Load())
		assert.Equal(t, float64(1.0), m.successRate())
		assert.Equal(t, int64(150), m.avgLatencyMs())
	})

	t.Run("failures reset on success", func(t *testing.T) {
		m := &endpointMetrics{}

		m.recordFailure()
		m.recordFailure()
		assert.Equal(t, int32(2), m.consecutiveFails.Load())

		m.recordSuccess(50)
		assert.Equal(t, int32(0), m.consecutiveFails.Load())
		assert.InDelta(t, 0.333, m.successRate(), 0.01)
	})
}

func TestEndpoint_Availability(t *testing.T) {
	e := &Endpoint{name: "printer", url: "http://localhost:9090", weight: 100, metrics: &endpointMetrics{}}

	assert.True(t, e.available())

	e.circuitOpenUntil.Store(time.Now().Add(10 * time.Second).Unix())
	assert.False(t, e.available())
	assert.Equal(t, float64(0), e.score())

	e.circuitOpenUntil.Store(time.Now().Add(-1 * time.Second).Unix())
	assert.True(t, e.available())
}

func TestEndpoint_Score(t *testing.T) {
	healthy := &Endpoint{name: "a", weight: 100, metrics: &endpointMetrics{}}
	flaky := &Endpoint{name: "b", weight: 100, metrics: &endpointMetrics{}}

	healthy.metrics.recordSuccess(100)
	flaky.metrics.recordSuccess(100)
	flaky.metrics.recordFailure()
	flaky.metrics.recordFailure()
	flaky.metrics.recordFailure()

	assert.Greater(t, healthy.score(), flaky.score())
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&Config{})
	assert.Error(t, err)

	c, err := NewClient(&Config{
		Endpoints: []EndpointConfig{{Name: "mock", URL: "http://localhost:9090", Weight: 50}},
	})
	require.NoError(t, err)
	assert.Len(t, c.endpoints, 1)
	assert.Equal(t, 10*time.Second, c.config.Timeout)
}

func TestClient_SelectEndpoint(t *testing.T) {
	c, err := NewClient(&Config{
		Endpoints: []EndpointConfig{
			{Name: "primary", URL: "http://localhost:9090", Weight: 100},
			{Name: "fallback", URL: "http://localhost:9091", Weight: 10},
		},
	})
	require.NoError(t, err)

	e, err := c.selectEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "primary", e.name)

	// trip the primary's breaker, selection falls over
	e.circuitOpenUntil.Store(time.Now().Add(time.Minute).Unix())
	e, err = c.selectEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "fallback", e.name)

	// both open: nothing to pick
	e.circuitOpenUntil.Store(time.Now().Add(time.Minute).Unix())
	_, err = c.selectEndpoint()
	assert.ErrorIs(t, err, ErrNoAvailableEndpoints)
}

func TestClient_CircuitBreakerTrips(t *testing.T) {
	c, err := NewClient(&Config{
		Endpoints:               []EndpointConfig{{Name: "mock", URL: "http://localhost:9090", Weight: 50}},
		CircuitBreakerThreshold: 3,
		CircuitBreakerTimeout:   time.Minute,
	})
	require.NoError(t, err)

	endpoint := c.endpoints[0]
	for i := 0; i < 3; i++ {
		endpoint.metrics.recordFailure()
	}
	c.checkCircuitBreaker(endpoint)

	assert.False(t, endpoint.available())
}
