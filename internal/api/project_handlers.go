package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Service.List(r.Context())
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: projects})
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if !decodeBody(w, r, &req) {
			return
		}

		t, err := cfg.Service.Create(r.Context(), req.Name)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		writeTimeline(w, r, cfg.Logger, http.StatusCreated, t)
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cfg.Service.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		writeTimeline(w, r, cfg.Logger, http.StatusOK, t)
	}
}

func updateProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateProjectRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Name == nil && req.Settings == nil {
			WriteError(w, http.StatusBadRequest, "name or settings is required", "BAD_REQUEST")
			return
		}

		id := chi.URLParam(r, "id")
		ctx := r.Context()
		if req.Name != nil {
			if _, err := cfg.Service.Rename(ctx, id, *req.Name); err != nil {
				writeServiceError(w, r, cfg.Logger, err)
				return
			}
		}
		if req.Settings != nil {
			if _, err := cfg.Service.UpdateSettings(ctx, id, *req.Settings); err != nil {
				writeServiceError(w, r, cfg.Logger, err)
				return
			}
		}

		t, err := cfg.Service.Get(ctx, id)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		writeTimeline(w, r, cfg.Logger, http.StatusOK, t)
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// importProjectHandler replaces a project with the timeline document in the
// request body.
func importProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteError(w, http.StatusRequestEntityTooLarge, "document too large", "TOO_LARGE")
				return
			}
			WriteError(w, http.StatusBadRequest, "failed to read body", "BAD_REQUEST")
			return
		}

		t, err := cfg.Service.Import(r.Context(), chi.URLParam(r, "id"), data)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		writeTimeline(w, r, cfg.Logger, http.StatusOK, t)
	}
}

func validateProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := cfg.Service.Validate(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

func sortClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cfg.Service.SortClips(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		writeTimeline(w, r, cfg.Logger, http.StatusOK, t)
	}
}

func resolveOverlapsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cfg.Service.ResolveOverlaps(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		writeTimeline(w, r, cfg.Logger, http.StatusOK, t)
	}
}
