package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"aegis-secure/internal/domain/models"
)

// RiskBucketLabels are the dashboard buckets in display order
var RiskBucketLabels = []string{"Safe", "Less Safe", "Less Scam", "High Scam"}

// riskBucketBounds are the half-open bucket edges: [0,26) [26,51) [51,76) [76,101)
var riskBucketBounds = []float64{0, 26, 51, 76, 101}

// ErrInvalidDays is returned for a recency window below one day
var ErrInvalidDays = errors.New("days must be at least 1")

// RiskScoreSource lists a user's stored scores for one channel, optionally since a time
type RiskScoreSource interface {
	ListRiskScores(ctx context.Context, userID string, since *time.Time) ([]float64, error)
}

// RiskBucketAggregator builds the dashboard histogram from stored scores
type RiskBucketAggregator struct {
	sms  RiskScoreSource
	mail RiskScoreSource
	now  func() time.Time
}

// NewRiskBucketAggregator creates a new RiskBucketAggregator
func NewRiskBucketAggregator(sms, mail RiskScoreSource) *RiskBucketAggregator {
	return &RiskBucketAggregator{sms: sms, mail: mail, now: time.Now}
}

// BucketIndex returns the bucket for score, or -1 when it falls outside [0,100]
func BucketIndex(score float64) int {
	if math.IsNaN(score) || score < 0 || score > 100 {
		return -1
	}
	for i := 0; i < len(riskBucketBounds)-1; i++ {
		if score >= riskBucketBounds[i] && score < riskBucketBounds[i+1] {
			return i
		}
	}
	return -1
}

// NewRiskHistogram returns an empty histogram with all labels
func NewRiskHistogram() *models.RiskHistogram {
	return &models.RiskHistogram{
		Labels: append([]string(nil), RiskBucketLabels...),
		Values: make([]int, len(RiskBucketLabels)),
	}
}

// AddScores counts in-range scores into h
func AddScores(h *models.RiskHistogram, scores []float64) {
	for _, score := range scores {
		if i := BucketIndex(score); i >= 0 {
			h.Values[i]++
			h.Total++
		}
	}
}

// Histogram aggregates the user's scores for mode. days <= 0 means no window;
// callers validate user input with ValidateDays.
func (a *RiskBucketAggregator) Histogram(ctx context.Context, userID string, mode models.DashboardMode, days int) (*models.RiskHistogram, error) {
	var since *time.Time
	if days > 0 {
		t := a.now().Add(-time.Duration(days) * 24 * time.Hour)
		since = &t
	}

	var sources []RiskScoreSource
	switch mode {
	case models.DashboardModeSMS:
		sources = []RiskScoreSource{a.sms}
	case models.DashboardModeMail:
		sources = []RiskScoreSource{a.mail}
	case models.DashboardModeBoth, "":
		sources = []RiskScoreSource{a.sms, a.mail}
	default:
		return nil, fmt.Errorf("unknown dashboard mode %q", mode)
	}

	h := NewRiskHistogram()
	for _, src := range sources {
		scores, err := src.ListRiskScores(ctx, userID, since)
		if err != nil {
			return nil, fmt.Errorf("failed to list risk scores: %w", err)
		}
		AddScores(h, scores)
	}
	return h, nil
}

// ValidateDays checks an explicit recency window
func ValidateDays(days int) error {
	if days < 1 {
		return ErrInvalidDays
	}
	return nil
}
