package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/autovid/autovid-editor/internal/project"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist(cfg.AllowedOrigins))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/credits/balance", creditBalanceHandler(cfg))

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", listProjectsHandler(cfg))
			r.Post("/", createProjectHandler(cfg))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", getProjectHandler(cfg))
				r.Patch("/", updateProjectHandler(cfg))
				r.Delete("/", deleteProjectHandler(cfg))
				r.Post("/import", importProjectHandler(cfg))
				r.Get("/validate", validateProjectHandler(cfg))
				r.Post("/sort", sortClipsHandler(cfg))
				r.Post("/resolve-overlaps", resolveOverlapsHandler(cfg))
				r.Post("/exports", createExportHandler(cfg))

				r.Post("/tracks", addTrackHandler(cfg))
				r.Patch("/tracks/{trackID}", updateTrackHandler(cfg))
				r.Delete("/tracks/{trackID}", removeTrackHandler(cfg))
				r.Post("/tracks/{trackID}/clone", cloneTrackHandler(cfg))
				r.Post("/tracks/{trackID}/clips", addClipHandler(cfg))

				r.Patch("/clips/{clipID}", updateClipHandler(cfg))
				r.Delete("/clips/{clipID}", removeClipHandler(cfg))
				r.Post("/clips/{clipID}/move", moveClipHandler(cfg))
				r.Post("/clips/{clipID}/stretch", stretchClipHandler(cfg))
				r.Post("/clips/{clipID}/split", splitClipHandler(cfg))
				r.Post("/clips/{clipID}/duplicate", duplicateClipHandler(cfg))
			})
		})

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Get("/jobs/{id}/file", downloadJobHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projects, _ := cfg.Service.List(ctx)
		jobs, _ := cfg.Service.ListJobs(ctx, 20)

		state := "idle"
		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		resp := StatusResponse{ProjectsCount: len(projects)}
		for _, j := range jobs {
			switch j.Status {
			case project.JobStatusRunning:
				state = "exporting"
				if resp.ActiveJob == nil {
					active := JobToResponse(j)
					resp.ActiveJob = &active
				}
				resp.JobsRunning++
			case project.JobStatusPending:
				resp.JobsPending++
			case project.JobStatusFailed:
				if resp.LastError == "" {
					resp.LastError = j.Error
				}
			}
		}

		if resp.LastError != "" && state == "idle" {
			state = "error"
		}
		resp.State = state

		WriteJSON(w, http.StatusOK, resp)
	}
}

func creditBalanceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := cfg.Service.CreditBalance(r.Context(), r.URL.Query().Get("user_id"))
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, balance)
	}
}
