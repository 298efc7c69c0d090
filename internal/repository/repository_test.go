package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE scheduled_posts (
	id TEXT PRIMARY KEY,
	caption TEXT NOT NULL,
	image_url TEXT NOT NULL,
	hashtags TEXT,
	scheduled_for DATETIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	published_at DATETIME,
	instagram_post_id TEXT,
	error_message TEXT,
	retry_count INTEGER NOT NULL DEFAULT 0,
	next_retry_at DATETIME,
	user_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE instagram_credentials (
	access_token TEXT NOT NULL,
	business_account_id TEXT NOT NULL,
	token_expires_at DATETIME,
	updated_at DATETIME NOT NULL
);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.ExecContext(context.Background(), testSchema)
	require.NoError(t, err)
	return db
}

func at(hour int) time.Time {
	return time.Date(2026, 3, 14, hour, 0, 0, 0, time.UTC)
}
