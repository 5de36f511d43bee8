package project

import (
	"context"
	"fmt"
	"os"

	"github.com/autovid/autovid-editor/internal/export"
	"github.com/autovid/autovid-editor/internal/logging"
)

// ExecuteExport renders a job's project as a CMX 3600 EDL into dir and marks
// the job completed. Failures are recorded on the job and returned.
func (s *Service) ExecuteExport(ctx context.Context, job *Job, dir string, frameRate float64) (*export.Result, error) {
	logger := logging.WithProjectID(logging.WithJobID(s.logger, job.ID), job.ProjectID)

	fail := func(err error) (*export.Result, error) {
		if uerr := s.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error()); uerr != nil {
			logger.Error("failed to record export failure", "error", uerr)
		}
		logger.Warn("export failed", "error", err)
		return nil, err
	}

	if err := s.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, ""); err != nil {
		return nil, fmt.Errorf("start export: %w", err)
	}
	logger.Info("starting export")

	_, t, err := s.load(ctx, job.ProjectID)
	if err != nil {
		return fail(err)
	}

	plan := export.FromTimeline(t, nil)
	if len(plan.Clips) == 0 {
		return fail(fmt.Errorf("%w: no exportable clips", ErrInvalidTimeline))
	}
	s.repo.UpdateJobProgress(ctx, job.ID, 50)

	content := export.GenerateEDL(plan.Clips, plan.Title, frameRate)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(fmt.Errorf("create export dir: %w", err))
	}
	path, err := export.WriteEDL(dir, t.Name()+"-"+shortID(job.ID), content)
	if err != nil {
		return fail(err)
	}

	if err := s.repo.CompleteJob(ctx, job.ID, path); err != nil {
		return nil, fmt.Errorf("complete export: %w", err)
	}

	logger.Info("export completed",
		"path", logging.SanitizePath(path), "events", len(plan.Clips), "skipped", len(plan.Skipped))
	return &export.Result{
		Format:     "edl",
		OutputPath: path,
		EventCount: len(plan.Clips),
		Skipped:    plan.Skipped,
	}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
