package project

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Repository interface {
	CreateProject(ctx context.Context, rec *Record) error
	GetProject(ctx context.Context, id string) (*Record, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	// UpdateProject replaces a project only if its stored updated_at still
	// equals expected. Otherwise it returns ErrConflict, or
	// ErrProjectNotFound when the row is gone.
	UpdateProject(ctx context.Context, rec *Record, expected time.Time) error
	DeleteProject(ctx context.Context, id string) (bool, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error
	CompleteJob(ctx context.Context, id, outputPath string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const projectColumns = `id, name, duration, track_count, clip_count, created_at, updated_at`

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, duration, track_count, clip_count, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Duration, p.TrackCount, p.ClipCount, string(p.Document),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+`, document FROM projects WHERE id = ?
	`, id)

	var rec Record
	var createdAt, updatedAt, doc string
	err := row.Scan(&rec.ID, &rec.Name, &rec.Duration, &rec.TrackCount, &rec.ClipCount, &createdAt, &updatedAt, &doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	rec.Document = []byte(doc)
	return &rec, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		var p Project
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Duration, &p.TrackCount, &p.ClipCount, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p *Record, expected time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, duration = ?, track_count = ?, clip_count = ?, document = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?
	`, p.Name, p.Duration, p.TrackCount, p.ClipCount, string(p.Document), formatTime(p.UpdatedAt),
		p.ID, formatTime(expected))
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, "SELECT 1 FROM projects WHERE id = ?", p.ID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrProjectNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const jobColumns = `id, type, status, project_id, user_id, quality, transaction_id, output_path, progress, error, created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.ProjectID), nullString(j.UserID), nullString(j.Quality),
		nullString(j.TransactionID), nullString(j.OutputPath), j.Progress, nullString(j.Error),
		formatTime(j.CreatedAt), formatTime(j.UpdatedAt))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil || len(jobs) == 0 {
		return nil, err
	}
	return jobs[0], nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	jobs := []*Job{}
	for rows.Next() {
		var j Job
		var projectID, userID, quality, txID, outputPath, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &projectID, &userID, &quality, &txID, &outputPath,
			&j.Progress, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.ProjectID = projectID.String
		j.UserID = userID.String
		j.Quality = quality.String
		j.TransactionID = txID.String
		j.OutputPath = outputPath.String
		j.Error = errMsg.String
		j.CreatedAt = parseTime(createdAt)
		j.UpdatedAt = parseTime(updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) CompleteJob(ctx context.Context, id, outputPath string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, progress = 100, output_path = ?, error = NULL, updated_at = ? WHERE id = ?
	`, JobStatusCompleted, outputPath, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// timeLayout is fixed-width RFC 3339 in UTC, so stored times sort as text
// and equal instants compare equal.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
