package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"playbackengine/internal/domain"
	"playbackengine/internal/usecase"
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeUseCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "invalid_request", "title id is required")
	case errors.Is(err, usecase.ErrFileRequired):
		writeError(w, http.StatusBadRequest, "invalid_request", "file path is required")
	case errors.Is(err, usecase.ErrNothingPlaying):
		writeError(w, http.StatusConflict, "nothing_playing", "session has no active version")
	case errors.Is(err, domain.ErrNoPlayableVersion):
		writeError(w, http.StatusConflict, "no_playable_version", "title has no playable versions")
	case errors.Is(err, domain.ErrTrackNotFound):
		writeError(w, http.StatusNotFound, "track_not_found", "track not found in active version")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, usecase.ErrRepository):
		writeError(w, http.StatusInternalServerError, "repository_error", err.Error())
	case errors.Is(err, usecase.ErrPlayer):
		writeError(w, http.StatusInternalServerError, "player_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "title not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "repository_error", err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parsePositiveInt(value string) (int, error) {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, errors.New("must be > 0")
	}
	return parsed, nil
}
