package project

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/autovid/autovid-editor/internal/logging"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultFrameRate    = 30.0
)

type RunnerConfig struct {
	ExportDir    string
	FrameRate    float64
	PollInterval time.Duration
}

// Runner polls for pending export jobs and executes them one at a time.
type Runner struct {
	service *Service
	repo    Repository
	cfg     RunnerConfig
	logger  *slog.Logger
	running atomic.Bool
	paused  atomic.Bool
}

func NewRunner(service *Service, repo Repository, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = defaultFrameRate
	}
	return &Runner{
		service: service,
		repo:    repo,
		cfg:     cfg,
		logger:  logging.WithComponent(logger, "runner"),
	}
}

// Start blocks until ctx is cancelled. Calling it while already running is a
// no-op.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started", "poll_interval", r.cfg.PollInterval.String())

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// processNextJob runs the oldest pending job, if any, and reports whether
// one was found.
func (r *Runner) processNextJob(ctx context.Context) bool {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return false
	}
	if len(jobs) == 0 {
		return false
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case JobTypeExportEDL:
		if _, err := r.service.ExecuteExport(ctx, job, r.cfg.ExportDir, r.cfg.FrameRate); err != nil {
			r.logger.Error("export failed", "job_id", job.ID, "error", err)
		}
	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
	return true
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}
