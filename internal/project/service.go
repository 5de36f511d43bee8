// Package project stores timelines and applies editing operations to them on
// behalf of API and CLI callers. Edits to one project are serialised and
// persisted with optimistic concurrency; export jobs are queued here and run
// by Runner.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autovid/autovid-editor/internal/credits"
	"github.com/autovid/autovid-editor/internal/logging"
	"github.com/autovid/autovid-editor/internal/timeline"
)

// DefaultUploadMaxDuration caps the length of clips placed from uploaded files.
const DefaultUploadMaxDuration = 60.0

// ValidationError carries the findings of a failed timeline validation.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid timeline: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTimeline
}

type Service struct {
	repo      Repository
	engine    *timeline.Engine
	credits   credits.Client
	logger    *slog.Logger
	uploadMax float64
	locks     *keyedMutex
	now       func() time.Time
}

type Option func(*Service)

// WithUploadMaxDuration sets the longest clip, in seconds, accepted for
// uploaded file media.
func WithUploadMaxDuration(seconds float64) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.uploadMax = seconds
		}
	}
}

func NewService(repo Repository, engine *timeline.Engine, creditsClient credits.Client, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		engine:    engine,
		credits:   creditsClient,
		logger:    logging.WithComponent(logger, "project"),
		uploadMax: DefaultUploadMaxDuration,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, name string) (*timeline.Timeline, error) {
	t := s.engine.CreateTimeline(strings.TrimSpace(name))

	rec, err := recordFrom(t)
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	if err := s.repo.CreateProject(ctx, rec); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info("project created", "project_id", t.ID(), "name", t.Name())
	return t, nil
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*timeline.Timeline, error) {
	_, t, err := s.load(ctx, id)
	return t, err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	deleted, err := s.repo.DeleteProject(ctx, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}

	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// Import replaces a project's timeline with a serialised document. The
// document must carry the project's id.
func (s *Service) Import(ctx context.Context, id string, data []byte) (*timeline.Timeline, error) {
	t, err := timeline.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTimeline, err)
	}
	if t.ID() != id {
		return nil, fmt.Errorf("%w: document id %q does not match project %q", ErrInvalidInput, t.ID(), id)
	}

	return s.edit(ctx, id, func(*timeline.Timeline) (*timeline.Timeline, error) {
		return t, nil
	})
}

func (s *Service) Validate(ctx context.Context, id string) (timeline.ValidationResult, error) {
	_, t, err := s.load(ctx, id)
	if err != nil {
		return timeline.ValidationResult{}, err
	}
	return timeline.ValidateTimeline(t), nil
}

func (s *Service) Rename(ctx context.Context, id, name string) (*timeline.Timeline, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		return s.engine.Rename(t, name), nil
	})
}

func (s *Service) UpdateSettings(ctx context.Context, id string, settings timeline.Settings) (*timeline.Timeline, error) {
	return s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		return s.engine.UpdateSettings(t, settings), nil
	})
}

func (s *Service) AddTrack(ctx context.Context, id string, typ timeline.MediaType, name string) (timeline.Track, error) {
	if !typ.Valid() {
		return timeline.Track{}, fmt.Errorf("%w: unknown track type %q", ErrInvalidInput, typ)
	}

	var added timeline.Track
	_, err := s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		next, tr := s.engine.AddTrack(t, typ, strings.TrimSpace(name))
		added = tr
		return next, nil
	})
	return added, err
}

// UpdateTrack patches a track. A locked track only accepts a change to its
// lock.
func (s *Service) UpdateTrack(ctx context.Context, id, trackID string, u timeline.TrackUpdate) (timeline.Track, error) {
	var updated timeline.Track
	_, err := s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		tr, err := findTrack(t, trackID)
		if err != nil {
			return nil, err
		}
		if tr.Locked && touchesMoreThanLock(u) {
			return nil, lockedError(tr)
		}

		next, err := s.engine.UpdateTrack(t, trackID, u)
		if err != nil {
			return nil, err
		}
		updated, _ = next.Track(trackID)
		return next, nil
	})
	return updated, err
}

func (s *Service) RemoveTrack(ctx context.Context, id, trackID string) error {
	_, err := s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		tr, err := findTrack(t, trackID)
		if err != nil {
			return nil, err
		}
		if tr.Locked {
			return nil, lockedError(tr)
		}
		return s.engine.RemoveTrack(t, trackID)
	})
	return err
}

func (s *Service) CloneTrack(ctx context.Context, id, trackID string) (timeline.Track, error) {
	var clone timeline.Track
	_, err := s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		next, tr, err := s.engine.CloneTrack(t, trackID)
		clone = tr
		return next, err
	})
	return clone, err
}

// AddClip places a clip on a track. An empty draft type takes the track's
// type. Duration-only drafts for uploaded files are capped at the upload
// limit.
func (s *Service) AddClip(ctx context.Context, id, trackID string, d timeline.ClipDraft) (timeline.Clip, error) {
	var added timeline.Clip
	_, err := s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		tr, err := findTrack(t, trackID)
		if err != nil {
			return nil, err
		}
		if tr.Locked {
			return nil, lockedError(tr)
		}

		if d.Type == "" {
			d.Type = tr.Type
		}
		if d.Source.Kind == timeline.SourceFile && d.EndTime <= 0 && d.Duration > s.uploadMax {
			d.Duration = s.uploadMax
		}

		next, c, err := s.engine.AddClip(t, trackID, d)
		added = c
		return next, err
	})
	return added, err
}

func (s *Service) UpdateClip(ctx context.Context, id, clipID string, u timeline.ClipUpdate) (timeline.Clip, error) {
	return s.editClip(ctx, id, clipID, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		return s.engine.UpdateClip(t, clipID, u)
	})
}

func (s *Service) RemoveClip(ctx context.Context, id, clipID string) error {
	_, err := s.editClip(ctx, id, clipID, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		return s.engine.RemoveClip(t, clipID)
	})
	return err
}

func (s *Service) MoveClip(ctx context.Context, id, clipID string, newStart float64) (timeline.Clip, error) {
	return s.editClip(ctx, id, clipID, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		return s.engine.MoveClip(t, clipID, newStart)
	})
}

func (s *Service) StretchClip(ctx context.Context, id, clipID string, factor float64) (timeline.Clip, error) {
	return s.editClip(ctx, id, clipID, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		return s.engine.StretchClip(t, clipID, factor)
	})
}

// SplitClip cuts a clip at time at and returns both halves.
func (s *Service) SplitClip(ctx context.Context, id, clipID string, at float64) (left, right timeline.Clip, err error) {
	left, err = s.editClip(ctx, id, clipID, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		next, r, err := s.engine.SplitClip(t, clipID, at)
		right = r
		return next, err
	})
	return left, right, err
}

// DuplicateClip copies a clip onto the same track, shifted by offset seconds.
// A nil offset places the copy right after the original.
func (s *Service) DuplicateClip(ctx context.Context, id, clipID string, offset *float64) (timeline.Clip, error) {
	var dup timeline.Clip
	_, err := s.editClip(ctx, id, clipID, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		c, _ := t.Clip(clipID)
		shift := c.Span()
		if offset != nil {
			shift = *offset
		}

		clone := s.engine.CloneClip(c, shift)
		next, placed, err := s.engine.AddClip(t, c.TrackID, clone.Draft())
		dup = placed
		return next, err
	})
	return dup, err
}

// SortClips orders clips on every track by start time. It fails with
// ErrTrackLocked if that would reorder a locked track.
func (s *Service) SortClips(ctx context.Context, id string) (*timeline.Timeline, error) {
	return s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		next := s.engine.SortClips(t)
		return next, checkLockedUnchanged(t, next)
	})
}

// ResolveOverlaps removes overlaps on every track. It fails with
// ErrTrackLocked if a locked track has overlaps.
func (s *Service) ResolveOverlaps(ctx context.Context, id string) (*timeline.Timeline, error) {
	return s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		next := s.engine.SplitOverlappingClips(t)
		return next, checkLockedUnchanged(t, next)
	})
}

// CreateExport validates the project, charges credits for the export and
// queues a job for the runner. Nothing is spent unless the user's balance
// covers every action of the export, and no job is created when a charge
// fails.
func (s *Service) CreateExport(ctx context.Context, id string, req ExportRequest) (*Job, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	quality := req.Quality
	if quality == "" {
		quality = QualityStandard
	}
	if quality != QualityStandard && quality != QualityHigh {
		return nil, fmt.Errorf("%w: unknown quality %q", ErrInvalidInput, req.Quality)
	}

	_, t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if res := timeline.ValidateTimeline(t); !res.Valid {
		return nil, &ValidationError{Errors: res.Errors}
	}
	if t.ClipCount() == 0 {
		return nil, fmt.Errorf("%w: project has no clips", ErrInvalidInput)
	}

	actions := []credits.Action{credits.ActionRenderVideo}
	if quality == QualityHigh {
		actions = append(actions, credits.ActionExportHighQuality)
	}

	need, err := credits.CostOfAll(actions...)
	if err != nil {
		return nil, err
	}
	balance, err := s.credits.Balance(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("check balance: %w", err)
	}
	if !balance.Covers(need) {
		return nil, fmt.Errorf("%w: export costs %s, balance is %d %s + %d %s",
			credits.ErrInsufficientCredits, need,
			balance.Standard, credits.KindStandard, balance.Extra, credits.KindExtra)
	}

	var txIDs []string
	for _, action := range actions {
		res, err := s.credits.Spend(ctx, credits.SpendRequest{
			UserID:   req.UserID,
			Action:   action,
			Quantity: 1,
			Metadata: map[string]any{"projectId": id, "quality": quality},
		})
		if err != nil {
			if len(txIDs) > 0 {
				s.logger.Warn("export charge only partly applied",
					"project_id", id, "user_id", req.UserID, "transactions", txIDs)
			}
			return nil, fmt.Errorf("charge %s: %w", action, err)
		}
		txIDs = append(txIDs, res.Transaction.ID)
	}

	now := s.now()
	job := &Job{
		ID:            uuid.NewString(),
		Type:          JobTypeExportEDL,
		Status:        JobStatusPending,
		ProjectID:     id,
		UserID:        req.UserID,
		Quality:       quality,
		TransactionID: strings.Join(txIDs, ","),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		s.logger.Warn("export charged but job not recorded",
			"project_id", id, "user_id", req.UserID, "transactions", txIDs, "error", err)
		return nil, fmt.Errorf("create export job: %w", err)
	}

	s.logger.Info("export job created", "job_id", job.ID, "project_id", id, "quality", quality)
	return job, nil
}

func (s *Service) CreditBalance(ctx context.Context, userID string) (*credits.Balance, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.credits.Balance(ctx, userID)
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) load(ctx context.Context, id string) (*Record, *timeline.Timeline, error) {
	rec, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load project: %w", err)
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}

	t, err := timeline.FromJSON(rec.Document)
	if err != nil {
		return nil, nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	return rec, t, nil
}

// edit runs fn against the stored timeline while holding the project's lock
// and saves the result if fn changed it.
func (s *Service) edit(ctx context.Context, id string, fn func(*timeline.Timeline) (*timeline.Timeline, error)) (*timeline.Timeline, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := fn(t)
	if err != nil {
		return nil, translate(err)
	}
	if next == t {
		return t, nil
	}

	out, err := recordFrom(next)
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	if err := s.repo.UpdateProject(ctx, out, rec.UpdatedAt); err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrProjectNotFound) {
			return nil, fmt.Errorf("%w: %s", err, id)
		}
		return nil, fmt.Errorf("save project: %w", err)
	}

	s.logger.Debug("project saved", "project_id", id, "duration", next.Duration(), "clips", next.ClipCount())
	return next, nil
}

// editClip is edit for operations on one clip: the clip's track must be
// unlocked, and the clip as it is after the edit is returned.
func (s *Service) editClip(ctx context.Context, id, clipID string, fn func(*timeline.Timeline) (*timeline.Timeline, error)) (timeline.Clip, error) {
	next, err := s.edit(ctx, id, func(t *timeline.Timeline) (*timeline.Timeline, error) {
		c, ok := t.Clip(clipID)
		if !ok {
			return nil, fmt.Errorf("%w: clip %s", ErrNotFound, clipID)
		}
		if tr, ok := t.Track(c.TrackID); ok && tr.Locked {
			return nil, lockedError(tr)
		}
		return fn(t)
	})
	if err != nil {
		return timeline.Clip{}, err
	}
	c, _ := next.Clip(clipID)
	return c, nil
}

func findTrack(t *timeline.Timeline, trackID string) (timeline.Track, error) {
	tr, ok := t.Track(trackID)
	if !ok {
		return timeline.Track{}, fmt.Errorf("%w: track %s", ErrNotFound, trackID)
	}
	return tr, nil
}

func lockedError(tr timeline.Track) error {
	return fmt.Errorf("%w: %s", ErrTrackLocked, tr.ID)
}

func touchesMoreThanLock(u timeline.TrackUpdate) bool {
	u.Locked = nil
	return u != (timeline.TrackUpdate{})
}

func checkLockedUnchanged(before, after *timeline.Timeline) error {
	for _, tr := range before.Tracks() {
		if !tr.Locked {
			continue
		}
		now, _ := after.Track(tr.ID)
		if !reflect.DeepEqual(tr.Clips, now.Clips) {
			return lockedError(tr)
		}
	}
	return nil
}

// translate maps engine errors onto the service's error set.
func translate(err error) error {
	switch {
	case timeline.IsNotFound(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, timeline.ErrInvalidScale), errors.Is(err, timeline.ErrSplitOutOfRange):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
