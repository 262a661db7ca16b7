package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipmark/clipmark-agent/internal/clip"
	"github.com/clipmark/clipmark-agent/internal/config"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens, cfg.Logger))

		r.Get("/session", sessionHandler(cfg))
		r.Put("/session/video", setVideoHandler(cfg))
		r.Post("/session/flush", flushHandler(cfg))
		r.Post("/session/teardown", teardownHandler(cfg))

		r.Get("/clips", listClipsHandler(cfg))
		r.Post("/clips", newClipHandler(cfg))
		r.Delete("/clips/downloaded", clearDownloadedHandler(cfg))
		r.Delete("/clips/{index}", deleteClipHandler(cfg))
		r.Patch("/clips/{index}", editTimeHandler(cfg))
		r.Post("/clips/{index}/download", downloadClipHandler(cfg))

		r.Get("/queue", queueHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: uptime,
		})
	}
}

func sessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID, url := cfg.Service.CurrentVideo()
		WriteJSON(w, http.StatusOK, SessionResponse{
			VideoID:     videoID,
			URL:         url,
			Dirty:       cfg.Service.Dirty(),
			QueueLength: cfg.Service.QueueLength(),
			Notice:      cfg.Service.Notice(),
		})
	}
}

func setVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		videoID, err := cfg.Service.SetCurrentVideo(r.Context(), req.URL)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, SetVideoResponse{VideoID: videoID})
	}
}

func flushHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Service.Flush(r.Context()); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func teardownHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Service.Teardown(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID, _ := cfg.Service.CurrentVideo()
		clips := cfg.Service.Clips()

		resp := ClipsResponse{VideoID: videoID, Clips: make([]ClipResponse, len(clips))}
		for i, c := range clips {
			resp.Clips[i] = ClipResponse{
				Index:       i,
				Start:       c.Start,
				End:         c.End,
				Downloaded:  c.Downloaded,
				Downloading: cfg.Service.IsDownloading(i),
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func newClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := cfg.Service.NewClip(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, NewClipResponse{Index: index})
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := clipIndex(w, r)
		if !ok {
			return
		}

		if err := cfg.Service.DeleteClip(r.Context(), index); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func editTimeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := clipIndex(w, r)
		if !ok {
			return
		}

		var req EditTimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		field := clip.TimeField(req.Field)
		if field != clip.FieldStart && field != clip.FieldEnd {
			WriteError(w, http.StatusBadRequest, "field must be \"start\" or \"end\"", "BAD_REQUEST")
			return
		}

		if err := cfg.Service.EditTime(r.Context(), index, field, req.Value, req.Seek); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func downloadClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := clipIndex(w, r)
		if !ok {
			return
		}

		if err := cfg.Service.DownloadClip(r.Context(), index); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func clearDownloadedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Service.ClearDownloaded(r.Context()); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func queueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, QueueResponse{Length: cfg.Service.QueueLength()})
	}
}

func clipIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		WriteError(w, http.StatusBadRequest, "invalid clip index", "BAD_REQUEST")
		return 0, false
	}
	return index, true
}

// writeServiceError maps the lifecycle error taxonomy onto status codes.
// Only composed message strings cross this boundary, never raw transport
// errors.
func writeServiceError(w http.ResponseWriter, err error) {
	var rangeErr *clip.RangeError
	switch {
	case errors.As(err, &rangeErr):
		WriteError(w, http.StatusBadRequest, rangeErr.Error(), "INVALID_RANGE")
	case errors.Is(err, clip.ErrClipNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "CLIP_NOT_FOUND")
	case errors.Is(err, clip.ErrNoActiveVideo):
		WriteError(w, http.StatusConflict, "no active video", "NO_ACTIVE_VIDEO")
	case errors.Is(err, clip.ErrPlayerUnavailable):
		WriteError(w, http.StatusBadGateway, "player unavailable", "PLAYER_UNAVAILABLE")
	case errors.Is(err, clip.ErrAlreadyInFlight):
		WriteError(w, http.StatusConflict, "This clip is already being downloaded", "ALREADY_IN_FLIGHT")
	case errors.Is(err, clip.ErrStorageUnavailable):
		WriteError(w, http.StatusInternalServerError, "clip storage unavailable", "STORAGE_UNAVAILABLE")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
