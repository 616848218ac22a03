package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aegis-secure/internal/domain/models"
	"aegis-secure/pkg/logger"
)

func TestClassifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "claim your prize", req.Text)

		_, _ = w.Write([]byte(`{"score": 88, "confidence": 0.93, "reasoning": "prize lure",
			"highlighted_text": "claim", "final_decision": "Scam", "suggestion": "Delete it"}`))
	}))
	defer srv.Close()

	c := NewRiskClassifierClient(srv.URL, time.Second, logger.NewNop())
	got := c.Classify(context.Background(), "claim your prize")

	require.Equal(t, 88.0, got.Score)
	require.NotNil(t, got.Confidence)
	require.InDelta(t, 0.93, *got.Confidence, 1e-9)
	require.Equal(t, "prize lure", got.Reasoning)
	require.Equal(t, "claim", got.HighlightedText)
	require.Equal(t, "Scam", got.FinalDecision)
	require.Equal(t, "Delete it", got.Suggestion)
}

func TestClassifyMissingFieldsDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"score": "42", "confidence": null}`))
	}))
	defer srv.Close()

	got := NewRiskClassifierClient(srv.URL, time.Second, logger.NewNop()).Classify(context.Background(), "hi")
	require.Equal(t, 42.0, got.Score)
	require.Nil(t, got.Confidence)
	require.Empty(t, got.Reasoning)
	require.Empty(t, got.Suggestion)
}

func TestClassifyFallsBackOnFailures(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"score":`))
		},
		"non numeric score": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"score": "high", "reasoning": "x"}`))
		},
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c := NewRiskClassifierClient(srv.URL, 100*time.Millisecond, logger.NewNop())
			require.Equal(t, models.NeutralAssessment(), c.Classify(context.Background(), "text"))

			_, err := c.Analyze(context.Background(), "text")
			require.Error(t, err)
		})
	}
}

func TestClassifyUnreachableService(t *testing.T) {
	c := NewRiskClassifierClient("http://127.0.0.1:1", 100*time.Millisecond, logger.NewNop())
	got := c.Classify(context.Background(), "text")
	require.Zero(t, got.Score)
	require.Nil(t, got.Confidence)
}
