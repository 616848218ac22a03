package handlers

import (
	"net/http"

	"aegis-secure/internal/api/middleware"
	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/domain/services"
	apperrors "aegis-secure/pkg/errors"
	"aegis-secure/pkg/logger"
)

// DashboardHandler serves the risk histogram
type DashboardHandler struct {
	aggregator *services.RiskBucketAggregator
	logger     *logger.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(aggregator *services.RiskBucketAggregator, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		aggregator: aggregator,
		logger:     log.WithComponent("dashboard-handler"),
	}
}

// Get handles GET /dashboard?mode=sms|mail|both&days=N
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	mode, ok := models.ParseDashboardMode(r.URL.Query().Get("mode"))
	if !ok {
		apperrors.Write(w, apperrors.NewBadRequest("mode must be one of sms, mail, both"))
		return
	}

	days, present, err := queryInt(r, "days")
	if err != nil {
		apperrors.Write(w, apperrors.NewBadRequest("days must be an integer"))
		return
	}
	if present {
		if err := services.ValidateDays(days); err != nil {
			apperrors.Write(w, apperrors.NewBadRequest(err.Error()))
			return
		}
	}

	hist, err := h.aggregator.Histogram(r.Context(), middleware.UserID(r.Context()), mode, days)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build dashboard")
		apperrors.Write(w, apperrors.Wrap(err, "Failed to build dashboard"))
		return
	}

	respondJSON(w, http.StatusOK, hist)
}
