package job

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/boothlabs/igpublisher/internal/models"
	"github.com/boothlabs/igpublisher/internal/repository"
	"github.com/boothlabs/igpublisher/internal/service"
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

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.ExecContext(context.Background(), testSchema)
	require.NoError(t, err)
	return db
}

func seedPost(t *testing.T, pr repository.ScheduledPostRepository, id string, scheduledFor time.Time) {
	t.Helper()
	err := pr.Create(context.Background(), &models.ScheduledPost{
		ID:           id,
		Caption:      "caption " + id,
		ImageURL:     "https://cdn.example.com/" + id + ".jpg",
		ScheduledFor: scheduledFor,
	})
	require.NoError(t, err)
}

type staticCredentials struct {
	creds service.Credentials
	err   error
}

func (s staticCredentials) Resolve(ctx context.Context) (service.Credentials, error) {
	return s.creds, s.err
}

var okCredentials = staticCredentials{creds: service.Credentials{AccessToken: "tok", BusinessAccountID: "1784"}}

// scriptedInstagram answers per image url. Images missing from the maps
// behave like a healthy publish.
type scriptedInstagram struct {
	mu         sync.Mutex
	imageErr   map[string]error
	createErr  map[string]error
	status     map[string]string
	panicOn    map[string]bool
	published  []string
	refreshed  []string
	refreshTok string
	refreshErr error
}

func (s *scriptedInstagram) CheckImageAccessible(ctx context.Context, imageURL string) error {
	return s.imageErr[imageURL]
}

func (s *scriptedInstagram) CreateContainer(ctx context.Context, creds service.Credentials, imageURL, caption string) (string, error) {
	if s.panicOn[imageURL] {
		panic("unexpected nil response")
	}
	if err := s.createErr[imageURL]; err != nil {
		return "", err
	}
	return "c:" + imageURL, nil
}

func (s *scriptedInstagram) GetContainerStatus(ctx context.Context, creds service.Credentials, containerID string) (string, error) {
	if st, ok := s.status[containerID]; ok {
		return st, nil
	}
	return service.ContainerStatusFinished, nil
}

func (s *scriptedInstagram) PublishContainer(ctx context.Context, creds service.Credentials, containerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, containerID)
	return "m:" + containerID, nil
}

func (s *scriptedInstagram) RefreshToken(ctx context.Context, accessToken string) (string, time.Time, error) {
	s.refreshed = append(s.refreshed, accessToken)
	if s.refreshErr != nil {
		return "", time.Time{}, s.refreshErr
	}
	return s.refreshTok, now.Add(60 * 24 * time.Hour), nil
}

func noSleep(context.Context, time.Duration) error { return nil }

var errPlatform = errors.New("platform")
