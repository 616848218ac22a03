package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aegis-secure/internal/domain/models"
)

type staticScores struct {
	scores []float64
	since  *time.Time
	err    error
}

func (s *staticScores) ListRiskScores(_ context.Context, _ string, since *time.Time) ([]float64, error) {
	s.since = since
	return s.scores, s.err
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := map[float64]int{
		0: 0, 25.9: 0, 26: 1, 50.5: 1, 51: 2, 75.99: 2, 76: 3, 100: 3,
		-1: -1, 100.5: -1, 101: -1,
	}
	for score, want := range cases {
		require.Equal(t, want, BucketIndex(score), "score %v", score)
	}
	require.Equal(t, -1, BucketIndex(math.NaN()))
}

func TestHistogramOneOfEach(t *testing.T) {
	agg := NewRiskBucketAggregator(&staticScores{scores: []float64{10, 30, 60, 90}}, &staticScores{})

	h, err := agg.Histogram(context.Background(), "u1", models.DashboardModeSMS, 0)
	require.NoError(t, err)
	require.Equal(t, &models.RiskHistogram{
		Labels: []string{"Safe", "Less Safe", "Less Scam", "High Scam"},
		Values: []int{1, 1, 1, 1},
		Total:  4,
	}, h)
}

func TestHistogramExcludesOutOfRange(t *testing.T) {
	agg := NewRiskBucketAggregator(&staticScores{scores: []float64{26, 101, -1}}, &staticScores{})

	h, err := agg.Histogram(context.Background(), "u1", models.DashboardModeSMS, 0)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 0, 0}, h.Values)
	require.Equal(t, 1, h.Total)
}

func TestHistogramBothSumsChannels(t *testing.T) {
	sms := &staticScores{scores: []float64{5, 80}}
	mail := &staticScores{scores: []float64{7, 55, 99}}
	agg := NewRiskBucketAggregator(sms, mail)
	agg.now = func() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }

	h, err := agg.Histogram(context.Background(), "u1", models.DashboardModeBoth, 7)
	require.NoError(t, err)
	require.Equal(t, []int{2, 0, 1, 2}, h.Values)
	require.Equal(t, 5, h.Total)

	require.NotNil(t, sms.since)
	require.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), *sms.since)
	require.Equal(t, sms.since, mail.since)
}

func TestHistogramMailOnlyAndEmpty(t *testing.T) {
	agg := NewRiskBucketAggregator(&staticScores{scores: []float64{1}}, &staticScores{})

	h, err := agg.Histogram(context.Background(), "u1", models.DashboardModeMail, 0)
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 0, 0}, h.Values)
	require.Len(t, h.Labels, 4)
	require.Zero(t, h.Total)
}

func TestHistogramPropagatesSourceError(t *testing.T) {
	agg := NewRiskBucketAggregator(&staticScores{err: errors.New("down")}, &staticScores{})
	_, err := agg.Histogram(context.Background(), "u1", models.DashboardModeBoth, 0)
	require.Error(t, err)

	_, err = agg.Histogram(context.Background(), "u1", "weekly", 0)
	require.Error(t, err)
}

func TestValidateDays(t *testing.T) {
	require.NoError(t, ValidateDays(1))
	require.ErrorIs(t, ValidateDays(0), ErrInvalidDays)
}
