package transfer

import "time"

type PostCreation struct {
	ImageURL     string `json:"imageUrl" form:"image_url" validate:"omitempty,url"`
	Caption      string `json:"caption" form:"caption" validate:"required,max=2200"`
	Hashtags     string `json:"hashtags" form:"hashtags" validate:"max=2200"`
	ScheduledFor string `json:"scheduledFor" form:"scheduled_for" validate:"required"`
}

type PostInfo struct {
	ID              string     `json:"id"`
	Caption         string     `json:"caption"`
	ImageURL        string     `json:"image_url"`
	Hashtags        string     `json:"hashtags,omitempty"`
	ScheduledFor    time.Time  `json:"scheduled_for"`
	Status          string     `json:"status"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	InstagramPostID string     `json:"instagram_post_id,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RetryCount      int        `json:"retry_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
