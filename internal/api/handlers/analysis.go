package handlers

import (
	"net/http"
	"strings"

	"aegis-secure/internal/domain/services"
	apperrors "aegis-secure/pkg/errors"
	"aegis-secure/pkg/logger"
)

// AnalysisHandler exposes the classifier for ad-hoc scoring
type AnalysisHandler struct {
	classifier services.RiskClassifier
	logger     *logger.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(classifier services.RiskClassifier, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		classifier: classifier,
		logger:     log.WithComponent("analysis-handler"),
	}
}

// AnalyzeTextRequest is the body of POST /analyze-text
type AnalyzeTextRequest struct {
	Text string `json:"text"`
}

// AnalyzeTextResponse is the classifier verdict for ad-hoc text. Stored
// records carry the same fields under spam_score; this endpoint reports score.
type AnalyzeTextResponse struct {
	Score           float64  `json:"score"`
	Confidence      *float64 `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	HighlightedText string   `json:"highlighted_text"`
	FinalDecision   string   `json:"final_decision"`
	Suggestion      string   `json:"suggestion"`
}

// AnalyzeText handles POST /analyze-text. Classifier failures return the neutral result.
func (h *AnalysisHandler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeTextRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		apperrors.Write(w, appErr)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		apperrors.Write(w, apperrors.NewBadRequest("Missing text"))
		return
	}

	risk := h.classifier.Classify(r.Context(), req.Text)
	respondJSON(w, http.StatusOK, AnalyzeTextResponse{
		Score:           risk.Score,
		Confidence:      risk.Confidence,
		Reasoning:       risk.Reasoning,
		HighlightedText: risk.HighlightedText,
		FinalDecision:   risk.FinalDecision,
		Suggestion:      risk.Suggestion,
	})
}
