package services

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"aegis-secure/internal/domain/models"
	"aegis-secure/pkg/logger"
)

// HistoryStore deletes stored messages. All channels passed in one call are
// removed together or not at all.
type HistoryStore interface {
	DeleteHistory(ctx context.Context, userID string, channels []models.Channel) (map[models.Channel]int64, error)
}

// HistoryService clears a user's stored messages and the dedup entries that
// would otherwise keep reporting them as seen.
type HistoryService struct {
	store  HistoryStore
	dedup  *Deduplicator
	logger *logger.Logger
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(store HistoryStore, dedup *Deduplicator, log *logger.Logger) *HistoryService {
	return &HistoryService{
		store:  store,
		dedup:  dedup,
		logger: log.WithComponent("history"),
	}
}

// Clear deletes the user's messages on the given channels, then drops their
// cached natural keys. Rows are already gone when a cache error is returned;
// retrying is safe.
func (s *HistoryService) Clear(ctx context.Context, userID string, channels ...models.Channel) (map[models.Channel]int64, error) {
	removed, err := s.store.DeleteHistory(ctx, userID, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}

	var forgetErr error
	for _, channel := range channels {
		forgetErr = multierr.Append(forgetErr, s.dedup.Forget(ctx, channel, userID))
	}
	if forgetErr != nil {
		s.logger.Error().Err(forgetErr).Str("user_id", userID).Msg("messages deleted but dedup cache not cleared")
		return removed, forgetErr
	}

	s.logger.Info().Str("user_id", userID).Interface("removed", removed).Msg("message history cleared")
	return removed, nil
}
