package server

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"colab/internal/domain"
	"colab/internal/services"
)

// SessionHandler handles session lifecycle HTTP requests
type SessionHandler struct {
	manager *services.SessionManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(manager *services.SessionManager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// sessionResponse mirrors the fields the rendering layer consumes
type sessionResponse struct {
	Abnormal     bool           `json:"abnormal,omitempty"`
	Date         time.Time      `json:"date"`
	ID           string         `json:"id"`
	JarInfo      jarInfoPayload `json:"jar_info"`
	PostCmdError string         `json:"post_cmd_error,omitempty"`
	Rev          string         `json:"rev"`
	Running      bool           `json:"running"`
}

type jarInfoPayload struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		Abnormal: s.Abnormal,
		Date:     s.CreatedAt,
		ID:       s.ID.String(),
		JarInfo: jarInfoPayload{
			Name:   s.JarInfo.Name,
			SHA256: s.JarInfo.SHA256,
		},
		PostCmdError: s.PostCmdError,
		Rev:          s.Revision,
		Running:      s.IsRunning(),
	}
}

const defaultRecentLimit = 20

// List handles GET /sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	running, err := h.manager.ListRunning(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	recent, err := h.manager.ListRecent(r.Context(), defaultRecentLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	runningOut := make([]sessionResponse, 0, len(running))
	for _, s := range running {
		runningOut = append(runningOut, toSessionResponse(s))
	}
	recentOut := make([]sessionResponse, 0, len(recent))
	for _, s := range recent {
		recentOut = append(recentOut, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"running": runningOut,
		"recent":  recentOut,
	})
}

// Start handles POST /sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	session, err := h.manager.StartSession(r.Context(), req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(*session))
}

// Get handles GET /sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.manager.GetSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(*session))
}

// Finish handles POST /sessions/{id}/finish
func (h *SessionHandler) Finish(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.manager.FinishSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(*session))
}

// Patch handles GET /sessions/{id}/patch
func (h *SessionHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.manager.GetSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if session.IsRunning() {
		writeError(w, http.StatusPreconditionFailed, "session has not finished yet")
		return
	}

	w.Header().Set("Content-Type", "text/x-patch; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(session.Patch))
}

// Log handles GET /sessions/{id}/log, streaming live tool output
// until the client disconnects or the session ends. Detaching never
// affects the process or other viewers.
func (h *SessionHandler) Log(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	reader, err := h.manager.AttachLog(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer reader.Close()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	// Client disconnect tears down the attachment
	go func() {
		<-r.Context().Done()
		reader.Close()
	}()

	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				return
			}
			return
		}
	}
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
