package transfer

type PublishRequest struct {
	ImageURL    string `json:"imageUrl" validate:"required,url"`
	Caption     string `json:"caption" validate:"max=2200"`
	ScheduledID string `json:"scheduledId" validate:"omitempty,uuid"`
}

type PublishResponse struct {
	Success         bool   `json:"success"`
	InstagramPostID string `json:"instagramPostId,omitempty"`
	Error           string `json:"error,omitempty"`
	Code            string `json:"code,omitempty"`
}

type BatchResult struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	InstagramPostID string `json:"instagram_post_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

type BatchSummary struct {
	Message   string        `json:"message"`
	Processed int           `json:"processed"`
	Results   []BatchResult `json:"results"`
}
