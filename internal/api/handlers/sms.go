package handlers

import (
	"net/http"

	"aegis-secure/internal/api/middleware"
	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/domain/services"
	apperrors "aegis-secure/pkg/errors"
	"aegis-secure/pkg/logger"
)

// SMSHandler handles device SMS ingestion endpoints
type SMSHandler struct {
	ingestion *services.IngestionService
	store     SMSMessageStore
	history   *services.HistoryService
	logger    *logger.Logger
}

// NewSMSHandler creates a new SMS handler
func NewSMSHandler(ingestion *services.IngestionService, store SMSMessageStore, history *services.HistoryService, log *logger.Logger) *SMSHandler {
	return &SMSHandler{
		ingestion: ingestion,
		store:     store,
		history:   history,
		logger:    log.WithComponent("sms-handler"),
	}
}

// SMSBatchRequest is the request body for a device batch of at most 500 records
type SMSBatchRequest struct {
	Messages []*models.RawSMS `json:"messages" validate:"required,min=1,max=500,dive,required"`
}

// SaveResponse reports the outcome of a single SMS submission
type SaveResponse struct {
	Status        string   `json:"status"`
	SpamScore     *float64 `json:"spam_score,omitempty"`
	FinalDecision *string  `json:"final_decision,omitempty"`
}

// Save handles POST /sms/save
func (h *SMSHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.RawSMS
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		apperrors.Write(w, appErr)
		return
	}

	result, err := h.ingestion.IngestSMS(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		apperrors.Write(w, apperrors.Wrap(err, "Failed to save SMS"))
		return
	}

	if result.Outcome == models.OutcomeDuplicate {
		respondJSON(w, http.StatusOK, SaveResponse{Status: "duplicate_skipped"})
		return
	}

	respondJSON(w, http.StatusOK, SaveResponse{
		Status:        "saved",
		SpamScore:     &result.Risk.Score,
		FinalDecision: &result.Risk.FinalDecision,
	})
}

// Batch handles POST /sms/batch
func (h *SMSHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req SMSBatchRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		apperrors.Write(w, appErr)
		return
	}

	summary, err := h.ingestion.IngestSMSBatch(r.Context(), middleware.UserID(r.Context()), req.Messages)
	respondIngest(w, h.logger, summary, err)
}

// All handles GET /sms/all - newest first
func (h *SMSHandler) All(w http.ResponseWriter, r *http.Request) {
	limit, _, err := queryInt(r, "limit")
	if err != nil || limit < 0 {
		apperrors.Write(w, apperrors.NewBadRequest("limit must be a non-negative integer"))
		return
	}

	msgs, err := h.store.ListByUser(r.Context(), middleware.UserID(r.Context()), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list sms")
		apperrors.Write(w, apperrors.Wrap(err, "Failed to list SMS"))
		return
	}
	if msgs == nil {
		msgs = []*models.SMSMessage{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":        len(msgs),
		"sms_messages": msgs,
	})
}

// Clear handles DELETE /sms/clear
func (h *SMSHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	removed, err := h.history.Clear(r.Context(), userID, models.ChannelSMS)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to clear sms")
		apperrors.Write(w, apperrors.Wrap(err, "Failed to clear SMS"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"status": "cleared", "deleted": removed[models.ChannelSMS]})
}
