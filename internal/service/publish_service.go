package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/boothlabs/igpublisher/internal/models"
	"github.com/boothlabs/igpublisher/internal/repository"
	"github.com/boothlabs/igpublisher/pkg/utils"
)

const (
	PollInterval            = 2 * time.Second
	InteractivePollAttempts = 30
	BatchPollAttempts       = 15
)

type PublishInput struct {
	ImageURL string
	Caption  string
}

type PublishOutcome struct {
	ContainerID     string
	InstagramPostID string
	// PollTimedOut is set when the container was still IN_PROGRESS after the
	// last poll and publishing was attempted anyway.
	PollTimedOut bool
}

type PublishService interface {
	Publish(ctx context.Context, creds Credentials, in PublishInput, pollAttempts int) (*PublishOutcome, error)
	PublishScheduled(ctx context.Context, creds Credentials, post *models.ScheduledPost, pollAttempts int) (*PublishOutcome, error)
	PublishNow(ctx context.Context, creds Credentials, scheduledID string, in PublishInput) (*PublishOutcome, error)
}

type PublishOption func(*publishService)

func WithSleeper(sleep utils.Sleeper) PublishOption {
	return func(s *publishService) { s.sleep = sleep }
}

func WithClock(now func() time.Time) PublishOption {
	return func(s *publishService) { s.now = now }
}

type publishService struct {
	ig    InstagramService
	pr    repository.ScheduledPostRepository
	sleep utils.Sleeper
	now   func() time.Time
}

func NewPublishService(ig InstagramService, pr repository.ScheduledPostRepository, opts ...PublishOption) PublishService {
	s := &publishService{
		ig:    ig,
		pr:    pr,
		sleep: utils.Sleep,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish runs the image check, container creation, status polling and
// publishing for one image. Nothing is persisted.
func (s *publishService) Publish(ctx context.Context, creds Credentials, in PublishInput, pollAttempts int) (*PublishOutcome, error) {
	if strings.TrimSpace(in.ImageURL) == "" {
		return nil, fmt.Errorf("%w: image url is required", ErrInvalidInput)
	}

	if err := s.ig.CheckImageAccessible(ctx, in.ImageURL); err != nil {
		slog.Info("image precheck failed", "image_url", in.ImageURL, "error", err)
		return nil, err
	}

	containerID, err := s.ig.CreateContainer(ctx, creds, in.ImageURL, in.Caption)
	if err != nil {
		return nil, err
	}
	outcome := &PublishOutcome{ContainerID: containerID}

	var lastStatus string
	finished, err := utils.Poll(ctx, pollAttempts, PollInterval, s.sleep, func(ctx context.Context) (bool, error) {
		status, err := s.ig.GetContainerStatus(ctx, creds, containerID)
		if err != nil {
			return false, err
		}
		lastStatus = status
		return status != ContainerStatusInProgress, nil
	})
	if err != nil {
		return outcome, err
	}

	if lastStatus == ContainerStatusError {
		return outcome, newPublishError(ErrContainerProcessing, 0, "container %s reported status %s", containerID, lastStatus)
	}
	if !finished {
		// Instagram may still accept the publish; let it decide.
		outcome.PollTimedOut = true
		slog.Warn("container still in progress after polling, publishing anyway",
			"container_id", containerID, "attempts", pollAttempts)
	}

	postID, err := s.ig.PublishContainer(ctx, creds, containerID)
	if err != nil {
		return outcome, err
	}
	outcome.InstagramPostID = postID
	return outcome, nil
}

// PublishScheduled publishes a post that the caller has already claimed and
// records the terminal status. The returned error is the publish failure, or
// ErrNotRecorded when the result could not be written; in that case the
// outcome still carries the Instagram post id if publishing succeeded.
func (s *publishService) PublishScheduled(ctx context.Context, creds Credentials, post *models.ScheduledPost, pollAttempts int) (*PublishOutcome, error) {
	outcome, publishErr := s.Publish(ctx, creds, PublishInput{ImageURL: post.ImageURL, Caption: post.FullCaption()}, pollAttempts)

	if err := s.record(ctx, post.ID, outcome, publishErr); err != nil {
		return outcome, err
	}
	return outcome, publishErr
}

// PublishNow is the interactive path. Without a scheduled id it publishes
// directly; with one it claims the stored post first and records the result.
func (s *publishService) PublishNow(ctx context.Context, creds Credentials, scheduledID string, in PublishInput) (*PublishOutcome, error) {
	if scheduledID == "" {
		return s.Publish(ctx, creds, in, InteractivePollAttempts)
	}

	post, err := s.pr.GetByID(ctx, scheduledID)
	if err != nil {
		return nil, fmt.Errorf("error loading scheduled post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	claimed, err := s.pr.Claim(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("error claiming scheduled post: %w", err)
	}
	if !claimed {
		return nil, ErrPostNotPending
	}

	if in.ImageURL != "" {
		post.ImageURL = in.ImageURL
	}
	if in.Caption != "" {
		post.Caption = in.Caption
		post.Hashtags.Valid = false
	}

	return s.PublishScheduled(ctx, creds, post, InteractivePollAttempts)
}

func (s *publishService) record(ctx context.Context, postID string, outcome *PublishOutcome, publishErr error) error {
	// the terminal write must land even when the request context is gone
	ctx = context.WithoutCancel(ctx)

	if publishErr != nil {
		slog.Info("scheduled post failed", "post_id", postID, "error", publishErr)
		if err := s.pr.MarkFailed(ctx, postID, publishErr.Error()); err != nil {
			slog.Error("unable to record failure", "post_id", postID, "error", err)
			return fmt.Errorf("%w: error recording failure: %w", ErrNotRecorded, err)
		}
		return nil
	}

	if err := s.pr.MarkPublished(ctx, postID, outcome.InstagramPostID, s.now()); err != nil {
		slog.Error("post published but result not recorded",
			"post_id", postID, "instagram_post_id", outcome.InstagramPostID, "error", err)
		return fmt.Errorf("%w: error recording publish: %w", ErrNotRecorded, err)
	}
	slog.Info("scheduled post published", "post_id", postID, "instagram_post_id", outcome.InstagramPostID)
	return nil
}
