package jobs

import (
	"time"

	"branchrent-backend/internal/config"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/repository"
	"branchrent-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	reservations repository.ReservationRepository
	service      service.ReservationService
	config       *config.Config
	now          func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, svc service.ReservationService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		reservations: store.Reservations(),
		service:      svc,
		config:       cfg,
		now:          time.Now,
	}
}

// WithClock pins the runner's notion of now.
func (jr *JobRunner) WithClock(now func() time.Time) *JobRunner {
	jr.now = now
	return jr
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every sweeper pass once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.DeleteAbandonedReservations()
	jr.LapseConfirmedReservations()
	jr.MarkNotReturnedReservations()
}
