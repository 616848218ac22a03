package repository

import (
	"context"
	"fmt"

	"aegis-secure/internal/infrastructure/database"
)

// SenderColorRepository stores the display color of each sender
type SenderColorRepository struct {
	db database.DBTX
}

// NewSenderColorRepository creates a new sender color repository
func NewSenderColorRepository(db database.DBTX) *SenderColorRepository {
	return &SenderColorRepository{db: db}
}

// AssignIfAbsent stores color unless the sender already has one, and returns
// the color that is stored
func (r *SenderColorRepository) AssignIfAbsent(ctx context.Context, sender, color string) (string, error) {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO sender_colors (sender, color) VALUES ($1, $2) ON CONFLICT (sender) DO NOTHING`,
		sender, color,
	); err != nil {
		return "", fmt.Errorf("failed to assign sender color: %w", err)
	}

	var stored string
	if err := r.db.QueryRow(ctx, `SELECT color FROM sender_colors WHERE sender = $1`, sender).Scan(&stored); err != nil {
		return "", fmt.Errorf("failed to read sender color: %w", err)
	}
	return stored, nil
}
