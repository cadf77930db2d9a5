package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/retailcore/pos-gateway/internal/config"
	"github.com/retailcore/pos-gateway/internal/queue"
	"github.com/retailcore/pos-gateway/pkg/logger"
	"github.com/retailcore/pos-gateway/pkg/redis"
	"github.com/retailcore/pos-gateway/pkg/worker"
)

const (
	dispatchTimeout = 5 * time.Second
	healthInterval  = 30 * time.Second
	shutdownTimeout = time.Minute

	consumerInstances = 4
	workerCount       = 50
	workerBuffer      = 10_000
)

// Service wires the receipt stream consumers to a worker pool that runs the
// notifier. Consumers only feed the pool; dispatch concurrency is bounded by
// the pool size, not by the number of stream readers.
type Service struct {
	adapter  redis.RedisAdapter
	queues   []*queue.Queue
	notifier *ReceiptNotifier
	metrics  *serviceMetrics
	worker   *worker.WorkerManager
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewService(adapter redis.RedisAdapter, notifier *ReceiptNotifier) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		adapter:  adapter,
		queues:   make([]*queue.Queue, 0, consumerInstances),
		notifier: notifier,
		metrics:  newServiceMetrics(),
		worker:   worker.NewWorkerManager(workerBuffer, workerCount, nil),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Service) Start() error {
	logger.Info("Starting receipt notifier...")

	s.worker.SetWorker(s.workerHandler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Error("Worker manager stopped", "error", err)
		}
	}()

	cfg := config.Get()
	for i := 0; i < consumerInstances; i++ {
		qc := queue.Config{
			Name:              cfg.ReceiptQueueName,
			ConsumerGroup:     cfg.ReceiptConsumerGroup,
			ConsumerName:      fmt.Sprintf("%s-instance-%d", cfg.ReceiptConsumerName, i),
			MaxRetries:        cfg.ReceiptMaxRetries,
			VisibilityTimeout: cfg.ReceiptVisibilityTimeout,
			PollInterval:      cfg.ReceiptPollInterval,
			BatchSize:         cfg.ReceiptBatchSize,
			MaxLen:            cfg.ReceiptMaxLen,
			EnableDLQ:         cfg.ReceiptEnableDLQ,
		}

		q, err := queue.New(s.adapter, qc)
		if err != nil {
			return fmt.Errorf("failed to create consumer %d: %w", i, err)
		}
		if err := q.Consume(s.deliveryHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	s.wg.Add(2)
	go s.metricsReporter()
	go s.healthChecker()

	logger.Info("Receipt notifier started", "consumers", len(s.queues), "workers", workerCount)
	return nil
}

type dispatchJob struct {
	delivery *queue.Delivery
	result   chan error
	ctx      context.Context
}

// deliveryHandler blocks the consumer until a pool worker has handled the
// delivery so the queue ack/nack reflects the real outcome.
func (s *Service) deliveryHandler(ctx context.Context, d *queue.Delivery) error {
	jobCtx, cancel := context.WithTimeout(ctx, dispatchTimeout+time.Second)
	defer cancel()

	job := &dispatchJob{
		delivery: d,
		result:   make(chan error, 1),
		ctx:      jobCtx,
	}
	s.worker.Enqueue(job)

	select {
	case err := <-job.result:
		return err
	case <-jobCtx.Done():
		return fmt.Errorf("timeout waiting for receipt dispatch: %w", jobCtx.Err())
	}
}

func (s *Service) workerHandler(workerIndex int, raw interface{}) {
	job, ok := raw.(*dispatchJob)
	if !ok {
		logger.Error("Invalid job type in worker", "worker", workerIndex)
		return
	}

	select {
	case <-job.ctx.Done():
		logger.Warn("Dispatch cancelled before processing", "worker", workerIndex)
		return
	default:
	}

	start := time.Now()
	err := s.notifier.Process(job.ctx, job.delivery)
	if err != nil {
		s.metrics.recordFailure()
	} else {
		s.metrics.recordSuccess(time.Since(start))
	}

	select {
	case job.result <- err:
	case <-job.ctx.Done():
		logger.Warn("Consumer gave up before the worker finished", "worker", workerIndex)
	}
}

func (s *Service) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) reportMetrics() {
	stats := s.metrics.snapshot()
	logger.Info("Notifier metrics",
		"dispatched", stats["dispatched"],
		"failed", stats["failed"],
		"rate_per_second", stats["rate_per_second"],
		"avg_duration_ms", stats["avg_duration_ms"],
		"uptime_seconds", stats["uptime_seconds"])

	for i, q := range s.queues {
		if length, err := q.Len(); err == nil {
			logger.Info("Queue length", "consumer", i, "entries", length)
		}
	}
}

func (s *Service) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkHealth()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) checkHealth() {
	if err := s.adapter.Client().Ping(context.Background()).Err(); err != nil {
		logger.Error("Health check failed: redis unreachable", "error", err)
		return
	}
	if backlog := s.worker.GetUnreadCount(); backlog > int64(workerBuffer)*9/10 {
		logger.Warn("Health check: worker pool near capacity", "backlog", backlog)
	}
}

func (s *Service) Stop() {
	logger.Info("Shutting down receipt notifier...")

	s.cancel()

	stopped := make(chan bool, len(s.queues))
	for i, q := range s.queues {
		go func(index int, q *queue.Queue) {
			if err := q.Stop(shutdownTimeout); err != nil {
				logger.Error("Error stopping consumer", "consumer", index, "error", err)
			}
			stopped <- true
		}(i, q)
	}
	for range s.queues {
		select {
		case <-stopped:
		case <-time.After(shutdownTimeout + 5*time.Second):
			logger.Warn("Timeout waiting for consumers to stop")
		}
	}

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()

	logger.Info("Receipt notifier stopped")
}
