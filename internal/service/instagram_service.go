package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/boothlabs/igpublisher/configs"
	"github.com/boothlabs/igpublisher/internal/transfer"
	"golang.org/x/time/rate"
)

const (
	ContainerStatusInProgress = "IN_PROGRESS"
	ContainerStatusFinished   = "FINISHED"
	ContainerStatusError      = "ERROR"

	oauthErrorCode = 190
)

type InstagramService interface {
	CheckImageAccessible(ctx context.Context, imageURL string) error
	CreateContainer(ctx context.Context, creds Credentials, imageURL, caption string) (string, error)
	GetContainerStatus(ctx context.Context, creds Credentials, containerID string) (string, error)
	PublishContainer(ctx context.Context, creds Credentials, containerID string) (string, error)
	RefreshToken(ctx context.Context, accessToken string) (string, time.Time, error)
}

type instagramService struct {
	graphURL   string
	refreshURL string
	client     *http.Client
	limiter    *rate.Limiter
}

func NewInstagramService(cfg config.Config, client *http.Client) InstagramService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	limit := rate.Inf
	if cfg.Instagram.RatePerSecond > 0 {
		limit = rate.Limit(cfg.Instagram.RatePerSecond)
	}

	return &instagramService{
		graphURL:   strings.TrimRight(cfg.Instagram.GraphURL, "/"),
		refreshURL: cfg.Instagram.RefreshURL,
		client:     client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// CheckImageAccessible makes sure Instagram will be able to fetch the image
// before a container is created for it.
func (s *instagramService) CheckImageAccessible(ctx context.Context, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return newPublishError(ErrImageNotAccessible, 0, "invalid image url %q", imageURL)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return newPublishError(ErrImageNotAccessible, 0, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newPublishError(ErrImageNotAccessible, resp.StatusCode, "HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		if contentType == "" {
			contentType = "none"
		}
		return newPublishError(ErrImageNotAccessible, resp.StatusCode, "unexpected content type %s", contentType)
	}

	return nil
}

func (s *instagramService) CreateContainer(ctx context.Context, creds Credentials, imageURL, caption string) (string, error) {
	params := url.Values{}
	params.Set("image_url", imageURL)
	params.Set("caption", caption)
	params.Set("access_token", creds.AccessToken)

	endpoint := fmt.Sprintf("%s/%s/media", s.graphURL, url.PathEscape(creds.BusinessAccountID))

	var result transfer.InstagramIDResponse
	if err := s.call(ctx, http.MethodPost, endpoint, params, &result, func() *transfer.InstagramError { return result.Error }); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", newPublishError(ErrPlatformRejected, 0, "no container id returned")
	}

	slog.Info("instagram container created", "container_id", result.ID)
	return result.ID, nil
}

func (s *instagramService) GetContainerStatus(ctx context.Context, creds Credentials, containerID string) (string, error) {
	params := url.Values{}
	params.Set("fields", "status_code")
	params.Set("access_token", creds.AccessToken)

	endpoint := fmt.Sprintf("%s/%s", s.graphURL, url.PathEscape(containerID))

	var result transfer.InstagramContainerStatus
	if err := s.call(ctx, http.MethodGet, endpoint, params, &result, func() *transfer.InstagramError { return result.Error }); err != nil {
		return "", err
	}
	return result.StatusCode, nil
}

func (s *instagramService) PublishContainer(ctx context.Context, creds Credentials, containerID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", containerID)
	params.Set("access_token", creds.AccessToken)

	endpoint := fmt.Sprintf("%s/%s/media_publish", s.graphURL, url.PathEscape(creds.BusinessAccountID))

	var result transfer.InstagramIDResponse
	if err := s.call(ctx, http.MethodPost, endpoint, params, &result, func() *transfer.InstagramError { return result.Error }); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", newPublishError(ErrPlatformRejected, 0, "no media id returned for container %s", containerID)
	}

	slog.Info("instagram container published", "container_id", containerID, "media_id", result.ID)
	return result.ID, nil
}

// RefreshToken exchanges a long-lived token for a fresh one.
func (s *instagramService) RefreshToken(ctx context.Context, accessToken string) (string, time.Time, error) {
	params := url.Values{}
	params.Set("grant_type", "ig_refresh_token")
	params.Set("access_token", accessToken)

	var result transfer.InstagramRefreshedToken
	if err := s.call(ctx, http.MethodGet, s.refreshURL, params, &result, func() *transfer.InstagramError { return result.Error }); err != nil {
		return "", time.Time{}, err
	}
	if result.AccessToken == "" {
		return "", time.Time{}, newPublishError(ErrPlatformRejected, 0, "no access token returned")
	}

	return result.AccessToken, GetExpiresAt(int(result.ExpiresIn)), nil
}

// call sends one Graph request with its parameters in the query string and
// decodes the body into out. platformErr reports the error envelope after
// decoding.
func (s *instagramService) call(ctx context.Context, method, endpoint string, params url.Values, out any, platformErr func() *transfer.InstagramError) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Info(err.Error())
		return newPublishError(ErrPlatformRejected, 0, "request to instagram failed: %v", redactToken(err.Error(), params.Get("access_token")))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newPublishError(ErrPlatformRejected, resp.StatusCode, "error reading response body: %v", err)
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil && resp.StatusCode < 300 {
			return newPublishError(ErrPlatformRejected, resp.StatusCode, "error parsing response: %v", err)
		}
	}

	if apiErr := platformErr(); apiErr != nil {
		return mapPlatformError(resp.StatusCode, apiErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newPublishError(ErrPlatformRejected, resp.StatusCode, "unexpected status code from Instagram: %d", resp.StatusCode)
	}
	return nil
}

func mapPlatformError(status int, apiErr *transfer.InstagramError) error {
	msg := apiErr.Message
	if apiErr.ErrorUserMsg != "" {
		msg = apiErr.ErrorUserMsg
	}

	if apiErr.Code == oauthErrorCode || strings.Contains(strings.ToLower(apiErr.Message), "oauth access token") {
		slog.Warn("instagram rejected the access token", "code", apiErr.Code, "subcode", apiErr.ErrorSubcode, "message", apiErr.Message)
		return &PublishError{Kind: ErrInvalidToken, Status: status, Detail: apiErr.Message}
	}

	if msg == "" {
		msg = fmt.Sprintf("error code %d", apiErr.Code)
	}
	return &PublishError{Kind: ErrPlatformRejected, Status: status, Detail: msg}
}

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, url.QueryEscape(token), "REDACTED")
}
