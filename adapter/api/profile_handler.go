package api

import (
	"errors"
	"log/slog"
	"net/http"

	identity "github.com/felixgeelhaar/jobtrack/internal/identity/domain"
)

// ProfileHandler exposes the caller's identity profile.
type ProfileHandler struct {
	profiles ProfileService
	logger   *slog.Logger
}

// Get handles GET /api/me
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Profile(r.Context(), ownerID(r.Context()))
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Sync handles POST /api/me/sync. It bypasses the profile cache.
func (h *ProfileHandler) Sync(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Sync(r.Context(), ownerID(r.Context()), true)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": profile})
}

func (h *ProfileHandler) writeProfileError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, identity.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	h.logger.ErrorContext(r.Context(), "failed to load profile", "error", err)
	writeError(w, http.StatusInternalServerError, "Failed to load profile")
}
