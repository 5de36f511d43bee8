package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/autovid/autovid-editor/internal/timeline"
)

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if !decodeBody(w, r, &req) {
			return
		}

		tr, err := cfg.Service.AddTrack(r.Context(), chi.URLParam(r, "id"), req.Type, req.Name)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, tr)
	}
}

func updateTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req timeline.TrackUpdate
		if !decodeBody(w, r, &req) {
			return
		}

		tr, err := cfg.Service.UpdateTrack(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "trackID"), req)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, tr)
	}
}

func removeTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Service.RemoveTrack(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "trackID")); err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func cloneTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tr, err := cfg.Service.CloneTrack(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "trackID"))
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, tr)
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req timeline.ClipDraft
		if !decodeBody(w, r, &req) {
			return
		}

		c, err := cfg.Service.AddClip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "trackID"), req)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, c)
	}
}

func updateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req timeline.ClipUpdate
		if !decodeBody(w, r, &req) {
			return
		}

		c, err := cfg.Service.UpdateClip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "clipID"), req)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, c)
	}
}

func removeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Service.RemoveClip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "clipID")); err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveClipRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.StartTime == nil {
			WriteError(w, http.StatusBadRequest, "startTime is required", "BAD_REQUEST")
			return
		}

		c, err := cfg.Service.MoveClip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "clipID"), *req.StartTime)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, c)
	}
}

func stretchClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StretchClipRequest
		if !decodeBody(w, r, &req) {
			return
		}

		c, err := cfg.Service.StretchClip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "clipID"), req.Factor)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, c)
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SplitClipRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Time == nil {
			WriteError(w, http.StatusBadRequest, "time is required", "BAD_REQUEST")
			return
		}

		left, right, err := cfg.Service.SplitClip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "clipID"), *req.Time)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, SplitClipResponse{Left: left, Right: right})
	}
}

func duplicateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DuplicateClipRequest
		if !decodeBody(w, r, &req) {
			return
		}

		c, err := cfg.Service.DuplicateClip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "clipID"), req.Offset)
		if err != nil {
			writeServiceError(w, r, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, c)
	}
}
