package transfer

type InstagramError struct {
	Message        string `json:"message"`
	Type           string `json:"type"`
	Code           int    `json:"code"`
	ErrorSubcode   int    `json:"error_subcode"`
	IsTransient    bool   `json:"is_transient"`
	ErrorUserTitle string `json:"error_user_title"`
	ErrorUserMsg   string `json:"error_user_msg"`
	FbtraceID      string `json:"fbtrace_id"`
}

type InstagramIDResponse struct {
	ID    string          `json:"id"`
	Error *InstagramError `json:"error"`
}

type InstagramContainerStatus struct {
	ID         string          `json:"id"`
	StatusCode string          `json:"status_code"`
	Error      *InstagramError `json:"error"`
}

type InstagramRefreshedToken struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
	Error       *InstagramError `json:"error"`
}
