package models

import (
	"database/sql"
	"time"
)

type InstagramCredentials struct {
	AccessToken       string       `db:"access_token" json:"-"`
	BusinessAccountID string       `db:"business_account_id" json:"business_account_id"`
	TokenExpiresAt    sql.NullTime `db:"token_expires_at" json:"token_expires_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

const (
	CredentialsSourceTable = "table"
	CredentialsSourceEnv   = "env"
)
