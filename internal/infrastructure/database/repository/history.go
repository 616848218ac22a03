package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/infrastructure/database"
)

// HistoryRepository deletes a user's stored messages across channels
type HistoryRepository struct {
	db database.TxStarter
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db database.TxStarter) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// DeleteHistory removes the user's messages for every requested channel in a
// single transaction and returns the per-channel row counts.
func (r *HistoryRepository) DeleteHistory(ctx context.Context, userID string, channels []models.Channel) (map[models.Channel]int64, error) {
	removed := make(map[models.Channel]int64, len(channels))

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, channel := range channels {
			var (
				n   int64
				err error
			)
			switch channel {
			case models.ChannelSMS:
				n, err = NewSMSRepository(tx).DeleteByUser(ctx, userID)
			case models.ChannelEmail:
				n, err = NewEmailRepository(tx).DeleteByUser(ctx, userID)
			default:
				return fmt.Errorf("unknown channel %q", channel)
			}
			if err != nil {
				return err
			}
			removed[channel] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}
