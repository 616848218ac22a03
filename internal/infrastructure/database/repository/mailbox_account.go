package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/infrastructure/database"
)

// MailboxAccountRepository handles linked mailbox persistence
type MailboxAccountRepository struct {
	db database.DBTX
}

// NewMailboxAccountRepository creates a new mailbox account repository
func NewMailboxAccountRepository(db database.DBTX) *MailboxAccountRepository {
	return &MailboxAccountRepository{db: db}
}

// UpsertAccount links the account; an empty refresh token keeps the stored one
func (r *MailboxAccountRepository) UpsertAccount(ctx context.Context, a *models.MailboxAccount) error {
	query := `
		INSERT INTO mailbox_accounts (user_id, gmail_email, refresh_token, connected_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, gmail_email) DO UPDATE SET
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), mailbox_accounts.refresh_token),
			connected_at = EXCLUDED.connected_at`

	if _, err := r.db.Exec(ctx, query, a.UserID, a.GmailEmail, a.RefreshToken, timeToTimestamptz(a.ConnectedAt)); err != nil {
		return fmt.Errorf("failed to upsert mailbox account: %w", err)
	}
	return nil
}

// GetAccount returns the linked account, or nil if it is not linked
func (r *MailboxAccountRepository) GetAccount(ctx context.Context, userID, gmailEmail string) (*models.MailboxAccount, error) {
	query := `
		SELECT user_id, gmail_email, refresh_token, connected_at
		FROM mailbox_accounts
		WHERE user_id = $1 AND gmail_email = $2`

	var a models.MailboxAccount
	err := r.db.QueryRow(ctx, query, userID, gmailEmail).Scan(&a.UserID, &a.GmailEmail, &a.RefreshToken, &a.ConnectedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get mailbox account: %w", err)
	}
	return &a, nil
}

// ListAccounts returns every linked account with a usable refresh token
func (r *MailboxAccountRepository) ListAccounts(ctx context.Context) ([]*models.MailboxAccount, error) {
	query := `
		SELECT user_id, gmail_email, refresh_token, connected_at
		FROM mailbox_accounts
		WHERE refresh_token <> ''
		ORDER BY connected_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list mailbox accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.MailboxAccount, 0)
	for rows.Next() {
		var a models.MailboxAccount
		if err := rows.Scan(&a.UserID, &a.GmailEmail, &a.RefreshToken, &a.ConnectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mailbox account: %w", err)
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}
