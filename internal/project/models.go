package project

import (
	"time"

	"github.com/autovid/autovid-editor/internal/timeline"
)

// Project is the listing view of a stored timeline.
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Duration   float64   `json:"duration"`
	TrackCount int       `json:"track_count"`
	ClipCount  int       `json:"clip_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Record is a stored project: its summary columns plus the serialised
// timeline document.
type Record struct {
	Project
	Document []byte
}

func recordFrom(t *timeline.Timeline) (*Record, error) {
	doc, err := timeline.ToJSON(t)
	if err != nil {
		return nil, err
	}
	return &Record{
		Project: Project{
			ID:         t.ID(),
			Name:       t.Name(),
			Duration:   t.Duration(),
			TrackCount: t.TrackCount(),
			ClipCount:  t.ClipCount(),
			CreatedAt:  t.CreatedAt(),
			UpdatedAt:  t.UpdatedAt(),
		},
		Document: doc,
	}, nil
}

const (
	JobTypeExportEDL = "export_edl"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

const (
	QualityStandard = "standard"
	QualityHigh     = "high"
)

type Job struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	ProjectID     string    `json:"project_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Quality       string    `json:"quality,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	OutputPath    string    `json:"output_path,omitempty"`
	Progress      int       `json:"progress"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Done reports whether the job has reached a final status.
func (j *Job) Done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// ExportRequest asks for an EDL export of a project.
type ExportRequest struct {
	UserID  string
	Quality string
}
