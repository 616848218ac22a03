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

// GmailHandler handles mailbox ingestion and stored-mail endpoints
type GmailHandler struct {
	mailbox *services.MailboxService
	emails  EmailMessageStore
	history *services.HistoryService
	logger  *logger.Logger
}

// NewGmailHandler creates a new GmailHandler
func NewGmailHandler(mailbox *services.MailboxService, emails EmailMessageStore, history *services.HistoryService, log *logger.Logger) *GmailHandler {
	return &GmailHandler{
		mailbox: mailbox,
		emails:  emails,
		history: history,
		logger:  log.WithComponent("gmail-handler"),
	}
}

// FetchLatestRequest is the request body for a manual mailbox fetch
type FetchLatestRequest struct {
	GmailEmail string `json:"gmail_email" validate:"required,email"`
}

// IngestResponse reports a batch ingestion
type IngestResponse struct {
	Status string `json:"status"`
	models.IngestSummary
	Error *apperrors.AppError `json:"error,omitempty"`
}

// FetchLatest handles POST /gmail/fetch-latest
func (h *GmailHandler) FetchLatest(w http.ResponseWriter, r *http.Request) {
	var req FetchLatestRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		apperrors.Write(w, appErr)
		return
	}

	userID := middleware.UserID(r.Context())
	summary, err := h.mailbox.FetchLatest(r.Context(), userID, req.GmailEmail)
	switch {
	case errors.Is(err, services.ErrAccountNotLinked):
		apperrors.Write(w, apperrors.NewBadRequest("Gmail account not linked"))
		return
	case errors.Is(err, services.ErrTokenRefresh):
		apperrors.Write(w, apperrors.NewBadRequest("Failed to refresh access token").WithInternal(err))
		return
	}
	respondIngest(w, h.logger, summary, err)
}

// respondIngest writes the batch outcome; storage failures are a 500 that
// still carries the counts of what was stored
func respondIngest(w http.ResponseWriter, log *logger.Logger, summary *models.IngestSummary, err error) {
	if err != nil {
		log.Error().Err(err).Msg("ingestion failed")
		if summary == nil {
			apperrors.Write(w, apperrors.Wrap(err, "Ingestion failed"))
			return
		}
		respondJSON(w, http.StatusInternalServerError, IngestResponse{
			Status:        "error",
			IngestSummary: *summary,
			Error:         apperrors.Wrap(err, "Some messages could not be stored"),
		})
		return
	}
	respondJSON(w, http.StatusOK, IngestResponse{Status: "ok", IngestSummary: *summary})
}

// Messages handles GET /gmail/messages
func (h *GmailHandler) Messages(w http.ResponseWriter, r *http.Request) {
	limit, _, err := queryInt(r, "limit")
	if err != nil || limit < 0 {
		apperrors.Write(w, apperrors.NewBadRequest("limit must be a non-negative integer"))
		return
	}

	msgs, err := h.emails.ListByUser(r.Context(), middleware.UserID(r.Context()), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list messages")
		apperrors.Write(w, apperrors.Wrap(err, "Failed to list messages"))
		return
	}
	if msgs == nil {
		msgs = []*models.EmailMessage{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(msgs),
		"messages": msgs,
	})
}

// Clear handles DELETE /gmail/clear
func (h *GmailHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	removed, err := h.history.Clear(r.Context(), userID, models.ChannelEmail)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to clear messages")
		apperrors.Write(w, apperrors.Wrap(err, "Failed to clear messages"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"status": "cleared", "deleted": removed[models.ChannelEmail]})
}
