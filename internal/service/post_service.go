package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/boothlabs/igpublisher/internal/models"
	"github.com/boothlabs/igpublisher/internal/repository"
	"github.com/boothlabs/igpublisher/internal/transfer"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const scheduledTimeLayout = "2006-01-02T15:04"

// Instagram content publishing only accepts JPEG images.
var allowedImageTypes = map[string]struct{}{
	"jpg": {},
}

type PostService interface {
	CreatePost(ctx context.Context, userID string, pc *transfer.PostCreation, file *multipart.FileHeader) (*transfer.PostInfo, error)
	List(ctx context.Context, userID, status string) ([]*transfer.PostInfo, error)
	PostInfo(ctx context.Context, postID, userID string) (*transfer.PostInfo, error)
}

type postService struct {
	pr repository.ScheduledPostRepository
	r2 R2Service
}

func NewPostService(pr repository.ScheduledPostRepository, r2 R2Service) PostService {
	return &postService{
		pr: pr,
		r2: r2,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID string, pc *transfer.PostCreation, file *multipart.FileHeader) (*transfer.PostInfo, error) {
	if pc == nil {
		err := fmt.Errorf("%w: post creation data is nil", ErrInvalidInput)
		slog.Error(err.Error())
		return nil, err
	}
	if strings.TrimSpace(pc.Caption) == "" {
		err := fmt.Errorf("%w: caption cannot be empty", ErrInvalidInput)
		slog.Info(err.Error())
		return nil, err
	}

	scheduledFor, err := parseScheduledTime(pc.ScheduledFor)
	if err != nil {
		err = fmt.Errorf("%w: invalid scheduled time format: %v", ErrInvalidInput, err)
		slog.Info(err.Error())
		return nil, err
	}

	imageURL := strings.TrimSpace(pc.ImageURL)
	if file != nil {
		imageURL, err = s.uploadImage(ctx, file)
		if err != nil {
			return nil, err
		}
	}
	if imageURL == "" {
		err := fmt.Errorf("%w: an image url or an image file is required", ErrInvalidInput)
		slog.Info(err.Error())
		return nil, err
	}

	post := &models.ScheduledPost{
		ID:           uuid.New().String(),
		Caption:      pc.Caption,
		ImageURL:     imageURL,
		Hashtags:     sql.NullString{String: strings.TrimSpace(pc.Hashtags), Valid: strings.TrimSpace(pc.Hashtags) != ""},
		ScheduledFor: scheduledFor,
		Status:       models.PostStatusPending,
		UserID:       sql.NullString{String: userID, Valid: userID != ""},
	}

	if err := s.pr.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return ToPostInfo(post), nil
}

func (s *postService) uploadImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.r2 == nil {
		return "", fmt.Errorf("%w: image uploads are not configured", ErrInvalidInput)
	}

	content, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer content.Close()

	fileBytes, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("error reading file content: %w", err)
	}

	kind, err := filetype.Match(fileBytes)
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("%w: unsupported file type", ErrInvalidInput)
	}
	if _, ok := allowedImageTypes[kind.Extension]; !ok {
		return "", fmt.Errorf("%w: file type %s is not allowed", ErrInvalidInput, kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	key := fmt.Sprintf("scheduled/%s.%s", id, kind.Extension)
	url, err := s.r2.Upload(ctx, key, fileBytes, kind.MIME.Value)
	if err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	return url, nil
}

func (s *postService) List(ctx context.Context, userID, status string) ([]*transfer.PostInfo, error) {
	if userID == "" {
		err := fmt.Errorf("%w: user is not valid", ErrInvalidInput)
		slog.Info(err.Error())
		return nil, err
	}

	posts, err := s.pr.ListByUserID(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	infos := make([]*transfer.PostInfo, 0, len(posts))
	for _, p := range posts {
		infos = append(infos, ToPostInfo(p))
	}
	return infos, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID string) (*transfer.PostInfo, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if post == nil || post.UserID.String != userID {
		slog.Info("post doesn't exist", "post_id", postID)
		return nil, ErrPostNotFound
	}
	return ToPostInfo(post), nil
}

func parseScheduledTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(scheduledTimeLayout, value)
}

func ToPostInfo(p *models.ScheduledPost) *transfer.PostInfo {
	info := &transfer.PostInfo{
		ID:              p.ID,
		Caption:         p.Caption,
		ImageURL:        p.ImageURL,
		Hashtags:        p.Hashtags.String,
		ScheduledFor:    p.ScheduledFor,
		Status:          p.Status,
		InstagramPostID: p.InstagramPostID.String,
		ErrorMessage:    p.ErrorMessage.String,
		RetryCount:      p.RetryCount,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.PublishedAt.Valid {
		publishedAt := p.PublishedAt.Time
		info.PublishedAt = &publishedAt
	}
	return info
}
