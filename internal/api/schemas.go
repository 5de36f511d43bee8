package api

import (
	"time"

	"github.com/autovid/autovid-editor/internal/project"
	"github.com/autovid/autovid-editor/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State         string       `json:"state"`
	LastError     string       `json:"last_error,omitempty"`
	ProjectsCount int          `json:"projects_count"`
	JobsRunning   int          `json:"jobs_running"`
	JobsPending   int          `json:"jobs_pending"`
	ActiveJob     *JobResponse `json:"active_job,omitempty"`
}

type ProjectsResponse struct {
	Projects []*project.Project `json:"projects"`
}

type CreateProjectRequest struct {
	Name string `json:"name"`
}

// UpdateProjectRequest renames a project and/or replaces its settings.
type UpdateProjectRequest struct {
	Name     *string            `json:"name"`
	Settings *timeline.Settings `json:"settings"`
}

type AddTrackRequest struct {
	Type timeline.MediaType `json:"type"`
	Name string             `json:"name"`
}

type MoveClipRequest struct {
	StartTime *float64 `json:"startTime"`
}

type StretchClipRequest struct {
	Factor float64 `json:"factor"`
}

type SplitClipRequest struct {
	Time *float64 `json:"time"`
}

type SplitClipResponse struct {
	Left  timeline.Clip `json:"left"`
	Right timeline.Clip `json:"right"`
}

type DuplicateClipRequest struct {
	Offset *float64 `json:"offset"`
}

type ExportRequest struct {
	UserID  string `json:"user_id"`
	Quality string `json:"quality,omitempty"`
}

type JobResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	ProjectID   string `json:"project_id,omitempty"`
	Quality     string `json:"quality,omitempty"`
	Progress    int    `json:"progress"`
	Error       string `json:"error,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

// JobToResponse hides server paths; finished artifacts are fetched through
// the download URL.
func JobToResponse(j *project.Job) JobResponse {
	resp := JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		ProjectID: j.ProjectID,
		Quality:   j.Quality,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
	if j.Status == project.JobStatusCompleted && j.OutputPath != "" {
		resp.DownloadURL = "/jobs/" + j.ID + "/file"
	}
	return resp
}
