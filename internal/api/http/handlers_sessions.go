package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"playbackengine/internal/domain"
	"playbackengine/internal/player"
	"playbackengine/internal/usecase"
)

type createSessionRequest struct {
	SurfaceID string `json:"surfaceId"`
}

type commandRequest struct {
	Command string  `json:"command"`
	Seconds float64 `json:"seconds"`
	Kind    string  `json:"kind"`
	TrackID *int    `json:"trackId"`
	Value   float64 `json:"value"`
}

type openRequest struct {
	TitleID   string `json:"titleId"`
	VersionID string `json:"versionId"`
}

type progressRequest struct {
	TitleID   string `json:"titleId"`
	TitleName string `json:"titleName"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.sessions.Snapshots())
	case http.MethodPost:
		var body createSessionRequest
		if r.Body != nil {
			// An empty body is fine: the session id is generated.
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		session, err := s.sessions.Create(strings.TrimSpace(body.SurfaceID))
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				writeError(w, http.StatusConflict, "already_exists", "session already exists for surface")
				return
			}
			writeError(w, http.StatusInternalServerError, "player_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, session.Snapshot())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	parts := splitPathTail(r.URL.Path, "/sessions/")
	if len(parts) == 0 {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			session, ok := s.sessions.Get(id)
			if !ok {
				writeError(w, http.StatusNotFound, "not_found", "session not found")
				return
			}
			writeJSON(w, http.StatusOK, session.Snapshot())
		case http.MethodDelete:
			if err := s.sessions.Remove(id); err != nil {
				writeError(w, http.StatusNotFound, "not_found", "session not found")
				return
			}
			s.BroadcastStates()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) != 2 || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch parts[1] {
	case "open":
		s.handleSessionOpen(w, r, id)
	case "commands":
		s.handleSessionCommand(w, r, id)
	case "progress":
		s.handleSessionProgress(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleSessionOpen(w http.ResponseWriter, r *http.Request, id string) {
	if s.openTitle == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "title opening not configured")
		return
	}
	var body openRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	out, err := s.openTitle.Execute(r.Context(), usecase.OpenTitleInput{
		SessionID: id,
		TitleID:   body.TitleID,
		VersionID: body.VersionID,
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	if out.Opened != nil {
		s.BroadcastSessionState(*out.Opened)
		writeJSON(w, http.StatusOK, out)
		return
	}
	// Multiple candidate versions: the client re-issues open with an
	// explicit versionId.
	writeJSON(w, http.StatusMultipleChoices, out)
}

func (s *Server) handleSessionCommand(w http.ResponseWriter, r *http.Request, id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	var body commandRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	if err := applyCommand(session, body); err != nil {
		if errors.Is(err, domain.ErrTrackNotFound) {
			writeError(w, http.StatusNotFound, "track_not_found", "track not found in active version")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	state := session.Snapshot()
	s.BroadcastSessionState(state)
	writeJSON(w, http.StatusOK, state)
}

func applyCommand(session *player.Session, body commandRequest) error {
	switch strings.TrimSpace(body.Command) {
	case "play":
		session.Play()
	case "pause":
		session.Pause()
	case "seek":
		session.Seek(body.Seconds)
	case "selectTrack":
		kind := domain.TrackKind(body.Kind)
		if kind != domain.TrackAudio && kind != domain.TrackSubtitle {
			return errors.New("kind must be audio or subtitle")
		}
		if body.TrackID == nil {
			return errors.New("trackId is required")
		}
		return session.SelectTrack(kind, *body.TrackID)
	case "setVolume":
		session.SetVolume(body.Value)
	case "setRate":
		session.SetRate(body.Value)
	default:
		return errors.New("unknown command")
	}
	return nil
}

func (s *Server) handleSessionProgress(w http.ResponseWriter, r *http.Request, id string) {
	if s.saveProgress == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "watch history not configured")
		return
	}
	var body progressRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	wp, err := s.saveProgress.Execute(r.Context(), usecase.SaveProgressInput{
		SessionID: id,
		TitleID:   body.TitleID,
		TitleName: body.TitleName,
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

type playerHealthResponse struct {
	Status         string    `json:"status"`
	CheckedAt      time.Time `json:"checkedAt"`
	ActiveSessions int       `json:"activeSessions"`
	WSClients      int       `json:"wsClients"`
	Issues         []string  `json:"issues,omitempty"`
}

func (s *Server) handlePlayerHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := playerHealthResponse{
		Status:    "ok",
		CheckedAt: time.Now().UTC(),
	}
	if s.sessions != nil {
		resp.ActiveSessions = len(s.sessions.Snapshots())
	} else {
		resp.Status = "degraded"
		resp.Issues = append(resp.Issues, "session manager is not configured")
	}
	if s.wsHub != nil {
		resp.WSClients = s.wsHub.clientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}
