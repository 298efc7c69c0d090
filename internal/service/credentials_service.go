package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	config "github.com/boothlabs/igpublisher/configs"
	"github.com/boothlabs/igpublisher/internal/models"
	"github.com/boothlabs/igpublisher/internal/repository"
)

// Credentials identify the single Instagram business account this service
// publishes to.
type Credentials struct {
	AccessToken       string
	BusinessAccountID string
	Source            string
}

type CredentialsService interface {
	Resolve(ctx context.Context) (Credentials, error)
}

type credentialsService struct {
	cfg config.Config
	cr  repository.CredentialsRepository
}

func NewCredentialsService(cfg config.Config, cr repository.CredentialsRepository) CredentialsService {
	return &credentialsService{
		cfg: cfg,
		cr:  cr,
	}
}

// Resolve reads the credentials row and falls back to the environment when the
// row is missing or incomplete. Any failure wraps ErrConfiguration.
func (s *credentialsService) Resolve(ctx context.Context) (Credentials, error) {
	if s.cr != nil {
		row, err := s.cr.Get(ctx)
		if err != nil {
			// an unreadable table is not fatal while the environment can still serve
			slog.Warn("unable to read instagram credentials table", "error", err)
		} else if row != nil {
			creds := Credentials{
				AccessToken:       NormalizeToken(row.AccessToken),
				BusinessAccountID: strings.TrimSpace(row.BusinessAccountID),
				Source:            models.CredentialsSourceTable,
			}
			if creds.AccessToken != "" && creds.BusinessAccountID != "" {
				return creds, nil
			}
			slog.Warn("instagram credentials row is incomplete, falling back to environment")
		}
	}

	creds := Credentials{
		AccessToken:       NormalizeToken(s.cfg.Instagram.AccessToken),
		BusinessAccountID: strings.TrimSpace(s.cfg.Instagram.BusinessAccountID),
		Source:            models.CredentialsSourceEnv,
	}
	if creds.AccessToken == "" {
		return Credentials{}, fmt.Errorf("%w: missing access token", ErrConfiguration)
	}
	if creds.BusinessAccountID == "" {
		return Credentials{}, fmt.Errorf("%w: missing business account id", ErrConfiguration)
	}
	return creds, nil
}

// NormalizeToken strips surrounding whitespace and a leading "Bearer" scheme.
// A value holding only the scheme normalizes to "".
func NormalizeToken(token string) string {
	token = strings.TrimLeftFunc(token, unicode.IsSpace)
	if len(token) >= 6 && strings.EqualFold(token[:6], "bearer") &&
		(len(token) == 6 || unicode.IsSpace(rune(token[6]))) {
		token = token[6:]
	}
	return strings.TrimSpace(token)
}
