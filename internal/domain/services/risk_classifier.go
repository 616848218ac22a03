package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cast"

	"aegis-secure/internal/domain/models"
	"aegis-secure/pkg/logger"
	"aegis-secure/pkg/metrics"
)

// DefaultClassifierTimeout bounds a single scoring call
const DefaultClassifierTimeout = 25 * time.Second

// ErrClassifierUnavailable wraps every failure of the scoring service
var ErrClassifierUnavailable = errors.New("risk classifier unavailable")

// RiskClassifier scores message text
type RiskClassifier interface {
	// Classify never fails; on any error it returns the neutral assessment
	Classify(ctx context.Context, text string) models.RiskAssessment
}

// RiskClassifierClient calls the external scoring service over HTTP
type RiskClassifierClient struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logger.Logger
}

// NewRiskClassifierClient creates a client for the scoring endpoint at url
func NewRiskClassifierClient(url string, timeout time.Duration, log *logger.Logger) *RiskClassifierClient {
	if timeout <= 0 {
		timeout = DefaultClassifierTimeout
	}
	return &RiskClassifierClient{
		url:        url,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     log.WithComponent("risk-classifier"),
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

// Classify scores text, falling back to the neutral assessment on failure
func (c *RiskClassifierClient) Classify(ctx context.Context, text string) models.RiskAssessment {
	assessment, err := c.Analyze(ctx, text)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.ClassifierFallbacks.WithLabelValues(reason).Inc()
		c.logger.Warn().Err(err).Str("reason", reason).Msg("classification failed, using neutral score")
		return models.NeutralAssessment()
	}
	return assessment
}

// Analyze scores text and reports failures explicitly
func (c *RiskClassifierClient) Analyze(ctx context.Context, text string) (models.RiskAssessment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.ClassifierLatency.Observe(time.Since(start).Seconds()) }()

	payload, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.RiskAssessment{}, fmt.Errorf("%w: status %d: %s", ErrClassifierUnavailable, resp.StatusCode, string(body))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.RiskAssessment{}, fmt.Errorf("%w: failed to decode response: %w", ErrClassifierUnavailable, err)
	}

	return parseAssessment(raw)
}

// parseAssessment maps the service response, defaulting absent fields
func parseAssessment(raw map[string]any) (models.RiskAssessment, error) {
	var a models.RiskAssessment

	if v, ok := raw["score"]; ok && v != nil {
		score, err := cast.ToFloat64E(v)
		if err != nil {
			return models.RiskAssessment{}, fmt.Errorf("%w: invalid score %v", ErrClassifierUnavailable, v)
		}
		a.Score = score
	}
	if v, ok := raw["confidence"]; ok && v != nil {
		if conf, err := cast.ToFloat64E(v); err == nil {
			a.Confidence = &conf
		}
	}

	a.Reasoning = cast.ToString(raw["reasoning"])
	a.HighlightedText = cast.ToString(raw["highlighted_text"])
	a.FinalDecision = cast.ToString(raw["final_decision"])
	a.Suggestion = cast.ToString(raw["suggestion"])

	return a, nil
}
