package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/autovid/autovid-editor/internal/download"
	"github.com/autovid/autovid-editor/internal/project"
)

// createExportHandler charges the user and queues an EDL export. The job
// runs in the background; poll GET /jobs/{id} for its outcome.
func createExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if !decodeBody(w, r, &req) {
			return
		}

		job, err := cfg.Service.CreateExport(r.Context(), chi.URLParam(r, "id"), project.ExportRequest{
			UserID:  req.UserID,
			Quality: req.Quality,
		})
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, JobToResponse(job))
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 500 {
				WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500", "BAD_REQUEST")
				return
			}
			limit = n
		}

		jobs, err := cfg.Service.ListJobs(r.Context(), limit)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Service.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func downloadJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Service.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		if job.Status != project.JobStatusCompleted || job.OutputPath == "" {
			WriteError(w, http.StatusConflict, "export is not finished", "JOB_NOT_READY")
			return
		}

		err = cfg.Downloads.Serve(w, r, job.OutputPath, filepath.Base(job.OutputPath))
		if errors.Is(err, download.ErrNotFound) {
			WriteError(w, http.StatusGone, "export file is no longer available", "ARTIFACT_GONE")
			return
		}
		if err != nil {
			cfg.Logger.Error("download error", "error", err, "job_id", job.ID)
			WriteError(w, http.StatusInternalServerError, "failed to read export", "INTERNAL_ERROR")
		}
	}
}
