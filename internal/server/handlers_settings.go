package server

import (
	"net/http"

	"colab/internal/config"
	"colab/internal/services"
)

// SettingsHandler handles settings HTTP requests
type SettingsHandler struct {
	settings *services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get handles GET /settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Snapshot()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Put handles PUT /settings. Edits never affect a session that is
// already running.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var settings config.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if settings.AutoSaveInterval <= 0 {
		settings.AutoSaveInterval = config.DefaultAutoSaveInterval
	}

	if err := h.settings.Update(settings); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PutRepo handles PUT /settings/repo
func (h *SettingsHandler) PutRepo(w http.ResponseWriter, r *http.Request) {
	var repo config.RepoSettings
	if err := decodeJSON(r, &repo); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.settings.UpdateRepo(repo); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repo)
}
