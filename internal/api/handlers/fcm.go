package handlers

import (
	"errors"
	"net/http"

	"aegis-secure/internal/api/middleware"
	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/domain/services"
	apperrors "aegis-secure/pkg/errors"
	"aegis-secure/pkg/logger"
)

// ProfileHandler manages push tokens and notification preferences
type ProfileHandler struct {
	profiles *services.ProfileService
	logger   *logger.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profiles *services.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   log.WithComponent("profile-handler"),
	}
}

// RegisterTokenRequest is the body of POST /fcm/register
type RegisterTokenRequest struct {
	Token string `json:"fcm_token"`
}

// SetPreferenceRequest is the body of POST /fcm/set_pref
type SetPreferenceRequest struct {
	Preference models.NotificationPreference `json:"notification_pref"`
}

// Register handles POST /fcm/register
func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterTokenRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		apperrors.Write(w, appErr)
		return
	}

	err := h.profiles.RegisterToken(r.Context(), middleware.UserID(r.Context()), req.Token)
	if errors.Is(err, services.ErrMissingPushToken) {
		apperrors.Write(w, apperrors.NewBadRequest("missing token"))
		return
	}
	if err != nil {
		apperrors.Write(w, apperrors.Wrap(err, "Failed to register token"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// SetPreference handles POST /fcm/set_pref
func (h *ProfileHandler) SetPreference(w http.ResponseWriter, r *http.Request) {
	var req SetPreferenceRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		apperrors.Write(w, appErr)
		return
	}

	err := h.profiles.SetPreference(r.Context(), middleware.UserID(r.Context()), req.Preference)
	if errors.Is(err, services.ErrInvalidPreference) {
		apperrors.Write(w, apperrors.NewBadRequest("Invalid preference"))
		return
	}
	if err != nil {
		apperrors.Write(w, apperrors.Wrap(err, "Failed to save preference"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "notification_pref": req.Preference})
}

// Info handles GET /fcm/info
func (h *ProfileHandler) Info(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Info(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		apperrors.Write(w, apperrors.Wrap(err, "Failed to load profile"))
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
