package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/boothlabs/igpublisher/internal/models"
	"github.com/boothlabs/igpublisher/internal/repository"
	"github.com/boothlabs/igpublisher/internal/service"
	"github.com/boothlabs/igpublisher/internal/transfer"
)

// BatchSize caps how many due posts one sweep picks up.
const BatchSize = 10

// Batch result statuses besides the terminal post statuses. A skipped post
// was not touched by this run; an unrecorded one is live on Instagram but its
// row is still in_progress.
const (
	ResultSkipped    = "skipped"
	ResultUnrecorded = "published_unrecorded"
)

type PublishScheduledJob struct {
	pr  repository.ScheduledPostRepository
	cs  service.CredentialsService
	ps  service.PublishService
	now func() time.Time
}

func NewPublishScheduledJob(
	pr repository.ScheduledPostRepository,
	cs service.CredentialsService,
	ps service.PublishService) *PublishScheduledJob {
	return &PublishScheduledJob{
		pr:  pr,
		cs:  cs,
		ps:  ps,
		now: time.Now,
	}
}

// Run publishes every due pending post, oldest first, one at a time. A failing
// post never stops the run; only unresolvable credentials or an unreadable
// queue do.
func (j *PublishScheduledJob) Run(ctx context.Context) (*transfer.BatchSummary, error) {
	creds, err := j.cs.Resolve(ctx)
	if err != nil {
		slog.Error("scheduled publish run aborted", "error", err)
		return nil, err
	}

	posts, err := j.pr.ListDue(ctx, j.now().UTC(), BatchSize)
	if err != nil {
		return nil, fmt.Errorf("error listing due posts: %w", err)
	}

	summary := &transfer.BatchSummary{Results: make([]transfer.BatchResult, 0, len(posts))}
	if len(posts) == 0 {
		summary.Message = "No scheduled posts due"
		return summary, nil
	}

	for _, post := range posts {
		if ctx.Err() != nil {
			slog.Warn("scheduled publish run cancelled", "remaining", len(posts)-len(summary.Results))
			break
		}
		result := j.processPost(ctx, creds, post)
		if result.Status != ResultSkipped {
			summary.Processed++
		}
		summary.Results = append(summary.Results, result)
	}

	summary.Message = fmt.Sprintf("Processed %d scheduled posts", summary.Processed)
	slog.Info("scheduled publish run finished", "processed", summary.Processed, "selected", len(posts))
	return summary, nil
}

func (j *PublishScheduledJob) processPost(ctx context.Context, creds service.Credentials, post *models.ScheduledPost) (result transfer.BatchResult) {
	result.ID = post.ID

	claimed, err := j.pr.Claim(ctx, post.ID)
	if err != nil {
		// the row is still pending and the next sweep picks it up
		result.Status = ResultSkipped
		result.Error = fmt.Sprintf("unable to claim post: %v", err)
		slog.Error("unable to claim post", "post_id", post.ID, "error", err)
		return result
	}
	if !claimed {
		result.Status = ResultSkipped
		slog.Info("post already claimed by another run", "post_id", post.ID)
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("internal error: %v", r)
			slog.Error("panic while publishing post", "post_id", post.ID, "panic", r)
			if err := j.pr.MarkFailed(context.WithoutCancel(ctx), post.ID, msg); err != nil {
				slog.Error("unable to record failure", "post_id", post.ID, "error", err)
			}
			result = transfer.BatchResult{ID: post.ID, Status: models.PostStatusFailed, Error: msg}
		}
	}()

	outcome, err := j.ps.PublishScheduled(ctx, creds, post, service.BatchPollAttempts)
	if err != nil && outcome != nil && outcome.InstagramPostID != "" {
		result.Status = ResultUnrecorded
		result.InstagramPostID = outcome.InstagramPostID
		result.Error = err.Error()
		slog.Error("post is live but its row was not updated",
			"post_id", post.ID, "instagram_post_id", outcome.InstagramPostID, "error", err)
		return result
	}
	if err != nil {
		result.Status = models.PostStatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = models.PostStatusPublished
	result.InstagramPostID = outcome.InstagramPostID
	return result
}
