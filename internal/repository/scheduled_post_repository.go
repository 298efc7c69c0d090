package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/boothlabs/igpublisher/internal/models"
)

// ErrNotInProgress is returned when a terminal update targets a post that is
// no longer held by the caller's claim.
var ErrNotInProgress = errors.New("scheduled post is not in progress")

type ScheduledPostRepository interface {
	Create(ctx context.Context, post *models.ScheduledPost) error
	GetByID(ctx context.Context, id string) (*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error)
	ListByUserID(ctx context.Context, userID, status string) ([]*models.ScheduledPost, error)
	Claim(ctx context.Context, id string) (bool, error)
	MarkPublished(ctx context.Context, id, instagramPostID string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `id, caption, image_url, hashtags, scheduled_for, status, published_at,
	instagram_post_id, error_message, retry_count, next_retry_at, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduledPost(row rowScanner) (*models.ScheduledPost, error) {
	var p models.ScheduledPost
	err := row.Scan(&p.ID, &p.Caption, &p.ImageURL, &p.Hashtags, &p.ScheduledFor, &p.Status, &p.PublishedAt,
		&p.InstagramPostID, &p.ErrorMessage, &p.RetryCount, &p.NextRetryAt, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, post *models.ScheduledPost) error {
	query := `
		INSERT INTO scheduled_posts (id, caption, image_url, hashtags, scheduled_for, status, retry_count, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	now := time.Now().UTC()
	if post.Status == "" {
		post.Status = models.PostStatusPending
	}
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query, post.ID, post.Caption, post.ImageURL, post.Hashtags,
		post.ScheduledFor.UTC(), post.Status, post.RetryCount, post.UserID, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// ListDue returns pending posts whose scheduled time has passed, oldest first.
func (r *scheduledPostRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPending, now.UTC(), limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

func (r *scheduledPostRepository) ListByUserID(ctx context.Context, userID, status string) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_for DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

func collectScheduledPosts(rows *sql.Rows) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// Claim moves a pending post to in_progress. It reports false when the post
// was not pending, e.g. because a concurrent run already claimed it.
func (r *scheduledPostRepository) Claim(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusInProgress, time.Now().UTC(), id, models.PostStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *scheduledPostRepository) MarkPublished(ctx context.Context, id, instagramPostID string, publishedAt time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			published_at = $2,
			instagram_post_id = $3,
			error_message = NULL,
			updated_at = $4
		WHERE id = $5 AND status = $6
	`
	return r.finish(ctx, query, models.PostStatusPublished, publishedAt.UTC(), instagramPostID, time.Now().UTC(), id, models.PostStatusInProgress)
}

func (r *scheduledPostRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error_message = $2,
			published_at = NULL,
			instagram_post_id = NULL,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.finish(ctx, query, models.PostStatusFailed, errorMessage, time.Now().UTC(), id, models.PostStatusInProgress)
}

func (r *scheduledPostRepository) finish(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info(ErrNotInProgress.Error())
		return ErrNotInProgress
	}
	return nil
}
