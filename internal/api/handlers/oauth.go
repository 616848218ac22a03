package handlers

import (
	"errors"
	"net/http"

	"aegis-secure/internal/api/middleware"
	"aegis-secure/internal/domain/services"
	apperrors "aegis-secure/pkg/errors"
	"aegis-secure/pkg/logger"
)

// OAuthHandler handles mailbox linking
type OAuthHandler struct {
	mailbox *services.MailboxService
	states  StateTokens
	logger  *logger.Logger
}

// NewOAuthHandler creates a new OAuthHandler
func NewOAuthHandler(mailbox *services.MailboxService, states StateTokens, log *logger.Logger) *OAuthHandler {
	return &OAuthHandler{
		mailbox: mailbox,
		states:  states,
		logger:  log.WithComponent("oauth-handler"),
	}
}

// Connect handles GET /oauth/google/connect - returns the consent URL
func (h *OAuthHandler) Connect(w http.ResponseWriter, r *http.Request) {
	state, err := h.states.IssueState(middleware.UserID(r.Context()))
	if err != nil {
		apperrors.Write(w, apperrors.Wrap(err, "Failed to create state"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"auth_url": h.mailbox.ConsentURL(state)})
}

// Callback handles GET /oauth/google/callback?code=&state=
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	if state == "" {
		apperrors.Write(w, apperrors.NewBadRequest("Missing state"))
		return
	}
	code := q.Get("code")
	if code == "" {
		apperrors.Write(w, apperrors.NewBadRequest("Missing code"))
		return
	}

	userID, err := h.states.ValidateState(state)
	if err != nil {
		apperrors.Write(w, apperrors.NewBadRequest("State decode failed").WithInternal(err))
		return
	}

	account, summary, err := h.mailbox.LinkAccount(r.Context(), userID, code)
	if errors.Is(err, services.ErrOAuthExchange) {
		apperrors.Write(w, apperrors.NewBadRequest("Failed token exchange").WithInternal(err))
		return
	}
	if account == nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to link mailbox")
		apperrors.Write(w, apperrors.Wrap(err, "Failed to link mailbox"))
		return
	}
	if err != nil {
		respondIngest(w, h.logger, summary, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "linked",
		"gmail_email":  account.GmailEmail,
		"new_inserted": summary.Stored,
		"duplicates":   summary.Duplicates,
		"failed":       summary.Failed,
	})
}
