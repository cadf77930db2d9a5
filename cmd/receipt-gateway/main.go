package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Standalone mock of a receipt delivery endpoint (thermal printer bridge or
// SMS/email relay) for local development and load testing. Simulates delivery
// latency and a configurable failure rate.

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

type DeliverRequest struct {
	ReceiptID     string  `json:"receipt_id" binding:"required"`
	InvoiceNumber string  `json:"invoice_number" binding:"required"`
	Kind          string  `json:"kind"`
	CustomerID    string  `json:"customer_id"`
	Amount        float64 `json:"amount"`
	Body          string  `json:"body" binding:"required"`
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

type HealthResponse struct {
	Status       string    `json:"status"`
	EndpointID   string    `json:"endpoint_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

type MockEndpoint struct {
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	endpointID   string
	rng          *rand.Rand
}

func NewMockEndpoint(deliveryRate float64, minDelay, maxDelay time.Duration) *MockEndpoint {
	return &MockEndpoint{
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		endpointID:   "MOCK_ENDPOINT_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockEndpoint) simulateDelivery(req *DeliverRequest) *DeliverResponse {
	time.Sleep(m.randomDelay())

	response := &DeliverResponse{
		ReceiptID:   req.ReceiptID,
		EndpointID:  m.endpointID,
		ProcessedAt: time.Now(),
	}

	if m.rng.Float64() < m.deliveryRate {
		now := time.Now()
		response.Status = StatusDelivered
		response.DeliveredAt = &now

		log.Info().
			Str("receipt_id", req.ReceiptID).
			Str("invoice", req.InvoiceNumber).
			Str("kind", req.Kind).
			Msg("Receipt delivered")
	} else {
		response.Status = StatusFailed
		response.ErrorCode = m.randomErrorCode()
		response.ErrorMsg = errorMessage(response.ErrorCode)

		log.Warn().
			Str("receipt_id", req.ReceiptID).
			Str("invoice", req.InvoiceNumber).
			Str("error_code", response.ErrorCode).
			Msg("Receipt delivery failed")
	}

	return response
}

func (m *MockEndpoint) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockEndpoint) randomErrorCode() string {
	codes := []string{
		"PRINTER_OFFLINE",
		"PAPER_OUT",
		"NETWORK_ERROR",
		"TIMEOUT",
		"ENDPOINT_REJECTED",
	}
	return codes[m.rng.Intn(len(codes))]
}

func errorMessage(code string) string {
	messages := map[string]string{
		"PRINTER_OFFLINE":   "The receipt printer is offline",
		"PAPER_OUT":         "The receipt printer is out of paper",
		"NETWORK_ERROR":     "Network connectivity issue with endpoint",
		"TIMEOUT":           "Receipt delivery timed out",
		"ENDPOINT_REJECTED": "Endpoint rejected the receipt",
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

type Handler struct {
	endpoint *MockEndpoint
}

func NewHandler(endpoint *MockEndpoint) *Handler {
	return &Handler{endpoint: endpoint}
}

func (h *Handler) Deliver(c *gin.Context) {
	var req DeliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	response := h.endpoint.simulateDelivery(&req)

	statusCode := http.StatusOK
	if response.Status == StatusFailed {
		statusCode = http.StatusAccepted // accepted but delivery failed
	}
	c.JSON(statusCode, response)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	// simulate occasional downtime
	if h.endpoint.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Endpoint temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		EndpointID:   h.endpoint.endpointID,
		Timestamp:    time.Now(),
		DeliveryRate: h.endpoint.deliveryRate,
	})
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var cfg struct {
		DeliveryRate *float64 `json:"delivery_rate"`
	}
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if cfg.DeliveryRate != nil && *cfg.DeliveryRate >= 0 && *cfg.DeliveryRate <= 1.0 {
		h.endpoint.deliveryRate = *cfg.DeliveryRate
		log.Info().Float64("rate", *cfg.DeliveryRate).Msg("Updated delivery rate")
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Configuration updated",
		"delivery_rate": h.endpoint.deliveryRate,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/receipts/deliver", handler.Deliver)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8091")
	deliveryRate := getEnvFloat("DELIVERY_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 50*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 300*time.Millisecond)

	endpoint := NewMockEndpoint(deliveryRate, minDelay, maxDelay)
	handler := NewHandler(endpoint)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info().
			Str("port", port).
			Str("endpoint_id", endpoint.endpointID).
			Float64("delivery_rate", deliveryRate).
			Msg("Mock receipt gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
	log.Info().Msg("Mock receipt gateway stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
