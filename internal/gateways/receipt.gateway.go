package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/retailcore/pos-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

var ErrNoAvailableEndpoints = errors.New("no available receipt endpoints")

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

// DeliverRequest is the rendered receipt shipped to a delivery endpoint
// (printer bridge, SMS/email relay, or the mock gateway in development).
type DeliverRequest struct {
	ReceiptID     string  `json:"receipt_id"`
	InvoiceNumber string  `json:"invoice_number"`
	Kind          string  `json:"kind"`
	CustomerID    string  `json:"customer_id"`
	Amount        float64 `json:"amount"`
	Body          string  `json:"body"`
}

type DeliverResponse struct {
	ReceiptID   string         `json:"receipt_id"`
	Status      DeliveryStatus `json:"status"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	EndpointID  string         `json:"endpoint_id"`
	ProcessedAt time.Time      `json:"processed_at"`
}

type endpointMetrics struct {
	totalRequests    atomic.Int64
	successfulReqs   atomic.Int64
	totalLatencyMs   atomic.Int64
	consecutiveFails atomic.Int32
}

func (m *endpointMetrics) recordSuccess(latencyMs int64) {
	m.totalRequests.Add(1)
	m.successfulReqs.Add(1)
	m.totalLatencyMs.Add(latencyMs)
	m.consecutiveFails.Store(0)
}

func (m *endpointMetrics) recordFailure() {
	m.totalRequests.Add(1)
	m.consecutiveFails.Add(1)
}

func (m *endpointMetrics) avgLatencyMs() int64 {
	total := m.totalRequests.Load()
	if total == 0 {
		return 0
	}
	return m.totalLatencyMs.Load() / total
}

func (m *endpointMetrics) successRate() float64 {
	total := m.totalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.successfulReqs.Load()) / float64(total)
}

type Endpoint struct {
	name             string
	url              string
	client           *fasthttp.Client
	metrics          *endpointMetrics
	weight           int
	circuitOpenUntil atomic.Int64
}

func (e *Endpoint) available() bool {
	return time.Now().Unix() > e.circuitOpenUntil.Load()
}

// score ranks endpoints for selection; higher is better. Success rate and
// latency dominate, the configured weight breaks ties.
func (e *Endpoint) score() float64 {
	if !e.available() {
		return 0
	}

	latencyScore := 100.0
	if avg := e.metrics.avgLatencyMs(); avg > 0 {
		latencyScore = 100.0 * (1.0 - float64(avg)/5000.0)
		if latencyScore < 0 {
			latencyScore = 0
		}
	}

	penalty := 1.0 - float64(e.metrics.consecutiveFails.Load())*0.1
	if penalty < 0.1 {
		penalty = 0.1
	}

	return (e.metrics.successRate()*100*0.4 + latencyScore*0.4 + float64(e.weight)*0.2) * penalty
}

type EndpointConfig struct {
	Name   string
	URL    string
	Weight int
}

type Config struct {
	Endpoints               []EndpointConfig
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// Client delivers rendered receipts over HTTP, preferring the endpoint with
// the best recent track record and tripping a per-endpoint circuit breaker
// after repeated failures.
type Client struct {
	config    *Config
	endpoints []*Endpoint
	mu        sync.RWMutex
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if len(config.Endpoints) == 0 {
		return nil, errors.New("at least one endpoint is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = 5
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}

	c := &Client{
		config:    config,
		endpoints: make([]*Endpoint, 0, len(config.Endpoints)),
	}

	for _, ec := range config.Endpoints {
		c.endpoints = append(c.endpoints, &Endpoint{
			name:    ec.Name,
			url:     ec.URL,
			weight:  ec.Weight,
			metrics: &endpointMetrics{},
			client: &fasthttp.Client{
				MaxConnsPerHost:     config.MaxConns,
				ReadTimeout:         config.Timeout,
				WriteTimeout:        config.Timeout,
				MaxIdleConnDuration: 60 * time.Second,
			},
		})
		logger.Info("Receipt endpoint registered", "name", ec.Name, "url", ec.URL, "weight", ec.Weight)
	}

	return c, nil
}

func (c *Client) selectEndpoint() (*Endpoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *Endpoint
	var bestScore float64
	for _, e := range c.endpoints {
		if !e.available() {
			continue
		}
		if s := e.score(); best == nil || s > bestScore {
			best, bestScore = e, s
		}
	}
	if best == nil {
		return nil, ErrNoAvailableEndpoints
	}
	return best, nil
}

// Deliver ships a rendered receipt, retrying across endpoints with a delay
// between attempts.
func (c *Client) Deliver(ctx context.Context, req *DeliverRequest) (*DeliverResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		endpoint, err := c.selectEndpoint()
		if err != nil {
			lastErr = err
			continue
		}

		start := time.Now()
		respBody, err := c.doRequest(ctx, endpoint, "POST", "/api/v1/receipts/deliver", body)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			endpoint.metrics.recordFailure()
			c.checkCircuitBreaker(endpoint)
			logger.Warn("Receipt delivery failed, retrying",
				"error", err, "endpoint", endpoint.name, "attempt", attempt+1)
			lastErr = err
			continue
		}

		endpoint.metrics.recordSuccess(latency)

		var resp DeliverResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		logger.Info("Receipt delivered",
			"receipt_id", req.ReceiptID, "invoice", req.InvoiceNumber,
			"endpoint", endpoint.name, "latency_ms", latency)

		return &resp, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, endpoint *Endpoint, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint.url + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := endpoint.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	code := resp.StatusCode()
	if code != fasthttp.StatusOK && code != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", code, resp.Body())
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

func (c *Client) checkCircuitBreaker(endpoint *Endpoint) {
	fails := endpoint.metrics.consecutiveFails.Load()
	if fails >= int32(c.config.CircuitBreakerThreshold) {
		endpoint.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).Unix())
		logger.Warn("Circuit breaker opened",
			"endpoint", endpoint.name, "consecutive_fails", fails,
			"timeout", c.config.CircuitBreakerTimeout)
	}
}
