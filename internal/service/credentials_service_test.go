package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/boothlabs/igpublisher/configs"
	"github.com/boothlabs/igpublisher/internal/models"
)

type fakeCredentialsRepo struct {
	row *models.InstagramCredentials
	err error
}

func (r *fakeCredentialsRepo) Get(ctx context.Context) (*models.InstagramCredentials, error) {
	return r.row, r.err
}

func (r *fakeCredentialsRepo) SetToken(ctx context.Context, oldAccessToken string, creds *models.InstagramCredentials) error {
	return nil
}

func envConfig(token, account string) config.Config {
	return config.Config{Instagram: config.Instagram{AccessToken: token, BusinessAccountID: account}}
}

func TestResolvePrefersTable(t *testing.T) {
	repo := &fakeCredentialsRepo{row: &models.InstagramCredentials{AccessToken: "table-token", BusinessAccountID: "111"}}
	cs := NewCredentialsService(envConfig("env-token", "222"), repo)

	creds, err := cs.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "table-token", creds.AccessToken)
	assert.Equal(t, "111", creds.BusinessAccountID)
	assert.Equal(t, models.CredentialsSourceTable, creds.Source)
}

func TestResolveFallsBackToEnv(t *testing.T) {
	tests := []struct {
		name string
		repo *fakeCredentialsRepo
	}{
		{name: "empty table", repo: &fakeCredentialsRepo{}},
		{name: "incomplete row", repo: &fakeCredentialsRepo{row: &models.InstagramCredentials{AccessToken: "  "}}},
		{name: "unreadable table", repo: &fakeCredentialsRepo{err: errors.New("relation does not exist")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewCredentialsService(envConfig("env-token", "222"), tt.repo)

			creds, err := cs.Resolve(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "env-token", creds.AccessToken)
			assert.Equal(t, "222", creds.BusinessAccountID)
			assert.Equal(t, models.CredentialsSourceEnv, creds.Source)
		})
	}
}

func TestResolveWithoutRepository(t *testing.T) {
	cs := NewCredentialsService(envConfig("env-token", "222"), nil)

	creds, err := cs.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.CredentialsSourceEnv, creds.Source)
}

func TestResolveNormalizesToken(t *testing.T) {
	repo := &fakeCredentialsRepo{row: &models.InstagramCredentials{AccessToken: "  Bearer abc.def \n", BusinessAccountID: " 111 "}}
	cs := NewCredentialsService(config.Config{}, repo)

	creds, err := cs.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc.def", creds.AccessToken)
	assert.Equal(t, "111", creds.BusinessAccountID)
}

func TestResolveBearerOnlyTableRowFallsBackToEnv(t *testing.T) {
	repo := &fakeCredentialsRepo{row: &models.InstagramCredentials{AccessToken: "Bearer ", BusinessAccountID: "111"}}

	_, err := NewCredentialsService(config.Config{}, repo).Resolve(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)

	creds, err := NewCredentialsService(envConfig("env-token", "222"), repo).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.CredentialsSourceEnv, creds.Source)
}

func TestResolveMissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "no token", cfg: envConfig("", "222")},
		{name: "bearer only", cfg: envConfig("Bearer ", "222")},
		{name: "bearer with tab", cfg: envConfig("Bearer\t ", "222")},
		{name: "lowercase bearer", cfg: envConfig("  bearer", "222")},
		{name: "no account", cfg: envConfig("env-token", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewCredentialsService(tt.cfg, &fakeCredentialsRepo{})

			_, err := cs.Resolve(context.Background())
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("abc"))
	assert.Equal(t, "abc", NormalizeToken(" bearer abc "))
	assert.Equal(t, "abc", NormalizeToken("BEARER abc"))
	assert.Equal(t, "Bearerabc", NormalizeToken("Bearerabc"))
	assert.Equal(t, "", NormalizeToken("   "))
	assert.Equal(t, "", NormalizeToken("Bearer "))
	assert.Equal(t, "", NormalizeToken("Bearer\t "))
	assert.Equal(t, "", NormalizeToken("BEARER"))
	assert.Equal(t, "abc", NormalizeToken("Bearer\tabc"))
}
