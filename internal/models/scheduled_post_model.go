package models

import (
	"database/sql"
	"time"
)

type ScheduledPost struct {
	ID              string         `db:"id" json:"id"`
	Caption         string         `db:"caption" json:"caption"`
	ImageURL        string         `db:"image_url" json:"image_url"`
	Hashtags        sql.NullString `db:"hashtags" json:"-"`
	ScheduledFor    time.Time      `db:"scheduled_for" json:"scheduled_for"`
	Status          string         `db:"status" json:"status"` // pending, in_progress, published, failed
	PublishedAt     sql.NullTime   `db:"published_at" json:"-"`
	InstagramPostID sql.NullString `db:"instagram_post_id" json:"-"`
	ErrorMessage    sql.NullString `db:"error_message" json:"-"`
	RetryCount      int            `db:"retry_count" json:"retry_count"`
	NextRetryAt     sql.NullTime   `db:"next_retry_at" json:"-"`
	UserID          sql.NullString `db:"user_id" json:"-"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// FullCaption is the caption text sent to Instagram, with hashtags appended
// after a blank line when present.
func (p *ScheduledPost) FullCaption() string {
	if !p.Hashtags.Valid || p.Hashtags.String == "" {
		return p.Caption
	}
	if p.Caption == "" {
		return p.Hashtags.String
	}
	return p.Caption + "\n\n" + p.Hashtags.String
}

const (
	PostStatusPending    = "pending"
	PostStatusInProgress = "in_progress"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)
