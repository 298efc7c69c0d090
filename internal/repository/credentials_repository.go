package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/boothlabs/igpublisher/internal/models"
)

type CredentialsRepository interface {
	Get(ctx context.Context) (*models.InstagramCredentials, error)
	SetToken(ctx context.Context, oldAccessToken string, creds *models.InstagramCredentials) error
}

type credentialsRepository struct {
	db *sql.DB
}

func NewCredentialsRepository(db *sql.DB) CredentialsRepository {
	return &credentialsRepository{db: db}
}

// Get returns the single credentials row, or nil when the table is empty.
func (r *credentialsRepository) Get(ctx context.Context) (*models.InstagramCredentials, error) {
	query := `
		SELECT access_token, business_account_id, token_expires_at, updated_at
		FROM instagram_credentials
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var c models.InstagramCredentials
	err := r.db.QueryRowContext(ctx, query).Scan(&c.AccessToken, &c.BusinessAccountID, &c.TokenExpiresAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &c, nil
}

// SetToken swaps the stored token only if it still equals oldAccessToken, so a
// refresh never overwrites a token rotated by someone else in the meantime.
func (r *credentialsRepository) SetToken(ctx context.Context, oldAccessToken string, creds *models.InstagramCredentials) error {
	query := `
		UPDATE instagram_credentials
		SET access_token = $1,
			token_expires_at = $2,
			updated_at = $3
		WHERE access_token = $4
	`
	result, err := r.db.ExecContext(ctx, query, creds.AccessToken, creds.TokenExpiresAt, time.Now().UTC(), oldAccessToken)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		slog.Info("no rows affected; credentials may have been rotated")
		return sql.ErrNoRows
	}
	return nil
}
