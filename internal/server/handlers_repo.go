package server

import (
	"net/http"

	"colab/internal/services"
)

// RepoHandler handles working tree HTTP requests
type RepoHandler struct {
	repo *services.RepositoryService
}

// NewRepoHandler creates a new repo handler
func NewRepoHandler(repo *services.RepositoryService) *RepoHandler {
	return &RepoHandler{repo: repo}
}

// State handles GET /repo
func (h *RepoHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.repo.State(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{
		"branch": state.Branch,
		"cloned": state.Cloned,
		"url":    state.URL,
	}
	if state.Cloned {
		resp["head_revision"] = state.HeadRevision
		resp["branches"] = state.Branches
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summary handles GET /repo/summary
func (h *RepoHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.repo.TreeSummary(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"additions":     summary.Additions,
		"ahead":         summary.Ahead,
		"behind":        summary.Behind,
		"changed_files": summary.ChangedFiles,
		"deletions":     summary.Deletions,
	})
}

// Clone handles POST /repo/clone
func (h *RepoHandler) Clone(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Clone(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	h.State(w, r)
}

// Fetch handles POST /repo/fetch
func (h *RepoHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Fetch(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "fetched"})
}

// Pull handles POST /repo/pull
func (h *RepoHandler) Pull(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Pull(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	h.State(w, r)
}

// Checkout handles POST /repo/checkout
func (h *RepoHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Branch string `json:"branch"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Branch == "" {
		writeError(w, http.StatusBadRequest, "branch is required")
		return
	}

	if err := h.repo.Checkout(r.Context(), req.Branch); err != nil {
		writeDomainError(w, err)
		return
	}
	h.State(w, r)
}
