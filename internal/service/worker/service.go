package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkstash/internal/config"
	"linkstash/internal/domain"
)

// retryProcessor moves delayed retry jobs back onto the main queue
type retryProcessor interface {
	ProcessRetryJobs(ctx context.Context, jobType string) error
}

// WorkerService processes background preview extraction jobs
type WorkerService struct {
	config *config.Config
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	queueRepo domain.QueueRepository
	retries   retryProcessor
	processor *JobProcessor

	stats *WorkerStats
}

// WorkerStats tracks worker performance metrics
type WorkerStats struct {
	JobsProcessed  int64
	JobsSucceeded  int64
	JobsFailed     int64
	LastJobTime    time.Time
	AverageJobTime time.Duration
}

// New creates a new worker service
func New(
	cfg *config.Config,
	logger *slog.Logger,
	queueRepo domain.QueueRepository,
	processor *JobProcessor,
) (*WorkerService, error) {
	ctx, cancel := context.WithCancel(context.Background())

	workerService := &WorkerService{
		config:    cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		queueRepo: queueRepo,
		processor: processor,
		stats:     &WorkerStats{},
	}

	// Retry scheduling is optional: only queue implementations with a retry
	// set support it
	if retries, ok := queueRepo.(retryProcessor); ok {
		workerService.retries = retries
	}

	return workerService, nil
}

// Start begins processing jobs
func (w *WorkerService) Start() error {
	w.logger.Info("Starting worker service...")

	go w.processJobs()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	w.logger.Info("Worker service is running. Press Ctrl+C to stop.")
	<-stop

	w.logger.Info("Shutting down worker service...")
	return w.Stop()
}

// Stop gracefully shuts down the worker service
func (w *WorkerService) Stop() error {
	w.logger.Info("Stopping worker service...")
	w.cancel()
	w.logger.Info("Worker service stopped")
	return nil
}

// processJobs continuously processes jobs from the queue
func (w *WorkerService) processJobs() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("Job processing stopped")
			return
		case <-ticker.C:
			w.processPendingJobs()
		}
	}
}

// processPendingJobs processes all pending jobs for each job type
func (w *WorkerService) processPendingJobs() {
	for _, jobType := range []string{domain.JobTypeExtractPreview, domain.JobTypeRefreshPreview} {
		// Promote retry jobs whose backoff expired
		if w.retries != nil {
			if err := w.retries.ProcessRetryJobs(w.ctx, jobType); err != nil {
				w.logger.Error("Failed to process retry jobs",
					"error", err,
					"job_type", jobType,
				)
			}
		}

		w.processJobType(jobType)
	}
}

// processJobType processes pending jobs of a specific type
func (w *WorkerService) processJobType(jobType string) {
	ctx := w.ctx

	pendingCount, err := w.queueRepo.GetPendingCount(ctx, jobType)
	if err != nil {
		w.logger.Error("Failed to get pending job count",
			"error", err,
			"job_type", jobType,
		)
		return
	}

	if pendingCount == 0 {
		return
	}

	w.logger.Debug("Processing pending jobs",
		"job_type", jobType,
		"count", pendingCount,
	)

	// Cap jobs per cycle so one burst cannot starve the other job type
	maxJobs := 10
	if pendingCount < maxJobs {
		maxJobs = pendingCount
	}

	for i := 0; i < maxJobs; i++ {
		job, err := w.queueRepo.Dequeue(ctx, jobType)
		if err != nil {
			w.logger.Error("Failed to dequeue job",
				"error", err,
				"job_type", jobType,
			)
			continue
		}

		if job == nil {
			break // No more jobs
		}

		w.processJob(job)
	}
}

// processJob processes a single job
func (w *WorkerService) processJob(job *domain.QueueJob) {
	startTime := time.Now()
	jobLogger := w.logger.With(
		"job_id", job.ID,
		"job_type", job.Type,
	)

	jobLogger.Info("Processing job")

	var processingErr error
	switch job.Type {
	case domain.JobTypeExtractPreview, domain.JobTypeRefreshPreview:
		processingErr = w.processor.ProcessPreviewExtraction(w.ctx, job.Payload, jobLogger)
	default:
		processingErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if processingErr != nil {
		jobLogger.Error("Job processing failed", "error", processingErr)

		if err := w.queueRepo.Fail(w.ctx, job.ID, processingErr.Error()); err != nil {
			jobLogger.Error("Failed to mark job as failed", "error", err)
		}

		w.stats.JobsFailed++
	} else {
		jobLogger.Info("Job processed successfully")

		if err := w.queueRepo.Complete(w.ctx, job.ID); err != nil {
			jobLogger.Error("Failed to mark job as completed", "error", err)
		}

		w.stats.JobsSucceeded++
	}

	w.stats.JobsProcessed++
	w.stats.LastJobTime = time.Now()

	jobDuration := time.Since(startTime)
	if w.stats.JobsProcessed > 1 {
		w.stats.AverageJobTime = time.Duration(
			(int64(w.stats.AverageJobTime) + int64(jobDuration)) / w.stats.JobsProcessed,
		)
	} else {
		w.stats.AverageJobTime = jobDuration
	}

	jobLogger.Debug("Job processing completed",
		"duration", jobDuration,
		"success", processingErr == nil,
	)
}

// GetStats returns current worker statistics
func (w *WorkerService) GetStats() *WorkerStats {
	return w.stats
}

// HealthCheck performs a health check on the worker service
func (w *WorkerService) HealthCheck() error {
	if w.ctx.Err() != nil {
		return fmt.Errorf("worker context cancelled: %w", w.ctx.Err())
	}

	if _, err := w.queueRepo.GetPendingCount(w.ctx, domain.JobTypeExtractPreview); err != nil {
		return fmt.Errorf("queue connectivity check failed: %w", err)
	}

	return nil
}
