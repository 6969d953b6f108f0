package apihttp

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"playbackengine/internal/domain"
)

type playerSettingsResponse struct {
	Autoplay bool `json:"autoplay"`
}

type updatePlayerSettingsRequest struct {
	Autoplay         *bool   `json:"autoplay"`
	TitleID          *string `json:"titleId"`
	PreferredVersion *string `json:"preferredVersion"`
}

func (s *Server) handlePlayerSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetPlayerSettings(w, r)
	case http.MethodPatch, http.MethodPut:
		s.handleUpdatePlayerSettings(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetPlayerSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "player settings not configured")
		return
	}

	resp := playerSettingsResponse{}
	if s.autoplay != nil {
		resp.Autoplay = s.autoplay.Autoplay()
	} else {
		autoplay, ok, err := s.settings.GetAutoplay(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "repository_error", "failed to load player settings")
			return
		}
		if ok {
			resp.Autoplay = autoplay
		}
	}

	if titleID := strings.TrimSpace(r.URL.Query().Get("titleId")); titleID != "" {
		pref, ok, err := s.settings.GetPreferredVersion(r.Context(), titleID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "repository_error", "failed to load player settings")
			return
		}
		if ok {
			writeJSON(w, http.StatusOK, struct {
				playerSettingsResponse
				PreferredVersion string `json:"preferredVersion"`
			}{resp, pref})
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdatePlayerSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "player settings not configured")
		return
	}

	var body updatePlayerSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if body.Autoplay == nil && body.PreferredVersion == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "nothing to update")
		return
	}
	if body.PreferredVersion != nil && (body.TitleID == nil || strings.TrimSpace(*body.TitleID) == "") {
		writeError(w, http.StatusBadRequest, "invalid_request", "titleId is required with preferredVersion")
		return
	}

	if body.Autoplay != nil {
		if s.autoplay != nil {
			if err := s.autoplay.SetAutoplay(*body.Autoplay); err != nil {
				writeError(w, http.StatusInternalServerError, "repository_error", "failed to save player settings")
				return
			}
		} else if err := s.settings.SetAutoplay(r.Context(), *body.Autoplay); err != nil {
			writeError(w, http.StatusInternalServerError, "repository_error", "failed to save player settings")
			return
		}
	}
	if body.PreferredVersion != nil {
		if err := s.settings.SetPreferredVersion(r.Context(), strings.TrimSpace(*body.TitleID), strings.TrimSpace(*body.PreferredVersion)); err != nil {
			writeError(w, http.StatusInternalServerError, "repository_error", "failed to save player settings")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.watchHistory == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "watch history not configured")
		return
	}

	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
			return
		}
		limit = parsed
	}

	positions, err := s.watchHistory.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list watch history")
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleWatchHistoryByID(w http.ResponseWriter, r *http.Request) {
	if s.watchHistory == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "watch history not configured")
		return
	}

	parts := splitPathTail(r.URL.Path, "/watch-history/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.NotFound(w, r)
		return
	}
	titleID := parts[0]
	versionID := domain.VersionID(parts[1])

	switch r.Method {
	case http.MethodGet:
		pos, err := s.watchHistory.Get(r.Context(), titleID, versionID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pos)

	case http.MethodPut:
		var body struct {
			Position  float64 `json:"position"`
			Duration  float64 `json:"duration"`
			TitleName string  `json:"titleName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		wp := domain.WatchPosition{
			TitleID:   titleID,
			VersionID: versionID,
			Position:  body.Position,
			Duration:  body.Duration,
			TitleName: body.TitleName,
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.watchHistory.Upsert(r.Context(), wp); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to save watch position")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
