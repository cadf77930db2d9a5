package prom

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
	"github.com/retailcore/pos-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemLedger   = "ledger"
	SystemReceipts = "receipts"
)

const (
	MetricSalesCreated     = "sales_created_total"
	MetricReturnsProcessed = "returns_processed_total"
	MetricDebtsAppended    = "debts_appended_total"
	MetricDebtsSettled     = "debts_settled_total"

	MetricReceiptsDelivered       = "delivered_total"
	MetricReceiptsFailed          = "failed_total"
	MetricReceiptDeliveryDuration = "delivery_duration_seconds"
)

var createLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var metricCounters = make(map[string]prometheus.Counter)
var metricHistograms = make(map[string]prometheus.Histogram)

var defaultLabels prometheus.Labels

// Create registers every metric the gateway emits. Counters that are
// incremented before Create runs are silently dropped, which keeps metrics
// optional in tests and tools.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounter(SystemLedger, MetricSalesCreated))
	hasError(createCounter(SystemLedger, MetricReturnsProcessed))
	hasError(createCounter(SystemLedger, MetricDebtsAppended))
	hasError(createCounter(SystemLedger, MetricDebtsSettled))

	hasError(createCounter(SystemReceipts, MetricReceiptsDelivered))
	hasError(createCounter(SystemReceipts, MetricReceiptsFailed))
	hasError(createHistogram(SystemReceipts, MetricReceiptDeliveryDuration))

	return err
}

// Handler adapts the promhttp handler so it can be mounted on the API router.
func Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
}

// ListenAndServer exposes /metrics on its own port for daemons that have no
// API surface of their own.
func ListenAndServer(port string, url string) {
	s := xhttp.CreateServer()
	s.GET(url, Handler())
	logger.Info("[metrics-server] listening...", "url", url)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func createCounter(subsystem, name string) error {
	createLock.Lock()
	defer createLock.Unlock()
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	})
	metricCounters[subsystem+name] = c
	return prometheus.Register(c)
}

func createHistogram(subsystem, name string) error {
	createLock.Lock()
	defer createLock.Unlock()
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	})
	metricHistograms[subsystem+name] = h
	return prometheus.Register(h)
}

func IncCounter(subsystem, name string) {
	AddCounter(subsystem, name, 1)
}

func AddCounter(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := metricCounters[subsystem+name]; ok {
		v.Add(number)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func ObserveHistogram(subsystem, name string, value float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := metricHistograms[subsystem+name]; ok {
		v.Observe(value)
		return
	}
	logger.Warn("[metrics-server] histogram not found", "subsystem", subsystem, "name", name)
}

// CreateMetric registers an ad-hoc metric at runtime.
func CreateMetric(metricType, subsystem, name string) error {
	switch metricType {
	case "counter":
		return createCounter(subsystem, name)
	case "histogram":
		return createHistogram(subsystem, name)
	}
	return fmt.Errorf("metric type %s is not defined", metricType)
}
