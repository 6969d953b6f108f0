package apihttp

import (
	"encoding/json"
	"net/http"

	"playbackengine/internal/classify"
	"playbackengine/internal/domain"
	"playbackengine/internal/usecase"
)

// versionResponse is a version enriched with its derived classification,
// so the UI can render quality badges without re-deriving them.
type versionResponse struct {
	domain.Version
	Classification domain.Classification `json:"classification"`
	AudioLabel     string                `json:"audioLabel,omitempty"`
	BitrateLabel   string                `json:"bitrateLabel,omitempty"`
	FileSizeLabel  string                `json:"fileSizeLabel,omitempty"`
}

func toVersionResponse(v domain.Version) versionResponse {
	resp := versionResponse{
		Version:        v,
		Classification: classify.ClassifyVersion(v),
	}
	if v.Tech.AudioCodec != "" {
		resp.AudioLabel = classify.AudioCodecLabel(v.Tech.AudioCodec)
	}
	if v.Tech.BitrateKbps > 0 {
		resp.BitrateLabel = classify.FormatBitrate(v.Tech.BitrateKbps)
	}
	if v.Tech.FileSizeMB > 0 {
		resp.FileSizeLabel = classify.FormatFileSize(v.Tech.FileSizeMB)
	}
	return resp
}

type putVersionsRequest struct {
	Versions []domain.Version `json:"versions"`
}

type ingestRequest struct {
	VersionID string `json:"versionId"`
	Label     string `json:"label"`
	FilePath  string `json:"filePath"`
}

func (s *Server) handleTitleByID(w http.ResponseWriter, r *http.Request) {
	parts := splitPathTail(r.URL.Path, "/titles/")
	if len(parts) == 0 {
		http.NotFound(w, r)
		return
	}
	titleID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleDeleteTitle(w, r, titleID)
		return
	}

	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	switch parts[1] {
	case "versions":
		switch r.Method {
		case http.MethodGet:
			s.handleGetVersions(w, r, titleID)
		case http.MethodPut:
			s.handlePutVersions(w, r, titleID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "ingest":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleIngest(w, r, titleID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetVersions(w http.ResponseWriter, r *http.Request, titleID string) {
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "catalog not configured")
		return
	}
	versions, err := s.catalog.Get(r.Context(), titleID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	out := make([]versionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersionResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePutVersions(w http.ResponseWriter, r *http.Request, titleID string) {
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "catalog not configured")
		return
	}
	var body putVersionsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	for _, v := range body.Versions {
		if v.ID == "" || v.URI == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "version id and uri are required")
			return
		}
	}
	if err := s.catalog.Put(r.Context(), titleID, body.Versions); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request, titleID string) {
	if s.ingestVersion == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "media probing not configured")
		return
	}
	var body ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	version, err := s.ingestVersion.Execute(r.Context(), usecase.IngestVersionInput{
		TitleID:   titleID,
		VersionID: body.VersionID,
		Label:     body.Label,
		FilePath:  body.FilePath,
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVersionResponse(version))
}

func (s *Server) handleDeleteTitle(w http.ResponseWriter, r *http.Request, titleID string) {
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "catalog not configured")
		return
	}
	if err := s.catalog.Delete(r.Context(), titleID); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
