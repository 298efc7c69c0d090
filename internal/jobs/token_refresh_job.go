package job

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/boothlabs/igpublisher/internal/models"
	"github.com/boothlabs/igpublisher/internal/repository"
	"github.com/boothlabs/igpublisher/internal/service"
)

// RefreshWindow is how close to expiry a stored token has to be before it is
// exchanged for a new one.
const RefreshWindow = 7 * 24 * time.Hour

type TokenRefreshJob struct {
	cr  repository.CredentialsRepository
	ig  service.InstagramService
	now func() time.Time
}

func NewTokenRefreshJob(cr repository.CredentialsRepository, ig service.InstagramService) *TokenRefreshJob {
	return &TokenRefreshJob{
		cr:  cr,
		ig:  ig,
		now: time.Now,
	}
}

// RefreshTokens refreshes the stored long-lived token when it is close to
// expiring. Tokens that only live in the environment are left alone.
func (c *TokenRefreshJob) RefreshTokens(ctx context.Context) error {
	creds, err := c.cr.Get(ctx)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if creds == nil || creds.AccessToken == "" {
		slog.Info("no stored instagram credentials to refresh")
		return nil
	}

	now := c.now()
	if creds.TokenExpiresAt.Valid && creds.TokenExpiresAt.Time.After(now.Add(RefreshWindow)) {
		return nil
	}

	oldToken := creds.AccessToken
	token, expiresAt, err := c.ig.RefreshToken(ctx, service.NormalizeToken(oldToken))
	if err != nil {
		slog.Warn("unable to refresh instagram token", "error", err)
		return err
	}

	updated := &models.InstagramCredentials{
		AccessToken:       token,
		BusinessAccountID: creds.BusinessAccountID,
		TokenExpiresAt:    sql.NullTime{Time: expiresAt.UTC(), Valid: true},
	}
	if err := c.cr.SetToken(ctx, oldToken, updated); err != nil {
		if err == sql.ErrNoRows {
			slog.Info("stored token changed during refresh, keeping the newer one")
			return nil
		}
		return err
	}

	slog.Info("instagram token refreshed", "expires_at", expiresAt)
	return nil
}
