package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/boothlabs/igpublisher/internal/models"
	"github.com/boothlabs/igpublisher/internal/repository"
)

type fakeInstagram struct {
	imageErr    error
	createID    string
	createErr   error
	statuses    []string
	statusErr   error
	publishID   string
	publishErr  error
	calls       []string
	lastCaption string
}

func (f *fakeInstagram) CheckImageAccessible(ctx context.Context, imageURL string) error {
	f.calls = append(f.calls, "check")
	return f.imageErr
}

func (f *fakeInstagram) CreateContainer(ctx context.Context, creds Credentials, imageURL, caption string) (string, error) {
	f.calls = append(f.calls, "create")
	f.lastCaption = caption
	return f.createID, f.createErr
}

func (f *fakeInstagram) GetContainerStatus(ctx context.Context, creds Credentials, containerID string) (string, error) {
	f.calls = append(f.calls, "status")
	if f.statusErr != nil {
		return "", f.statusErr
	}
	if len(f.statuses) == 0 {
		return ContainerStatusFinished, nil
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

func (f *fakeInstagram) PublishContainer(ctx context.Context, creds Credentials, containerID string) (string, error) {
	f.calls = append(f.calls, "publish")
	return f.publishID, f.publishErr
}

func (f *fakeInstagram) RefreshToken(ctx context.Context, accessToken string) (string, time.Time, error) {
	f.calls = append(f.calls, "refresh")
	return "", time.Time{}, nil
}

func (f *fakeInstagram) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*models.ScheduledPost
}

func newFakePostRepo(posts ...*models.ScheduledPost) *fakePostRepo {
	r := &fakePostRepo{posts: map[string]*models.ScheduledPost{}}
	for _, p := range posts {
		if p.Status == "" {
			p.Status = models.PostStatusPending
		}
		r.posts[p.ID] = p
	}
	return r
}

func (r *fakePostRepo) Create(ctx context.Context, post *models.ScheduledPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ScheduledPost
	for _, p := range r.posts {
		if p.Status == models.PostStatusPending && !p.ScheduledFor.After(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) ListByUserID(ctx context.Context, userID, status string) ([]*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ScheduledPost
	for _, p := range r.posts {
		if p.UserID.String == userID && (status == "" || p.Status == status) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePostRepo) Claim(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != models.PostStatusPending {
		return false, nil
	}
	p.Status = models.PostStatusInProgress
	return true, nil
}

func (r *fakePostRepo) MarkPublished(ctx context.Context, id, instagramPostID string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != models.PostStatusInProgress {
		return repository.ErrNotInProgress
	}
	p.Status = models.PostStatusPublished
	p.InstagramPostID.String, p.InstagramPostID.Valid = instagramPostID, true
	p.PublishedAt.Time, p.PublishedAt.Valid = publishedAt, true
	p.ErrorMessage.Valid = false
	return nil
}

func (r *fakePostRepo) MarkFailed(ctx context.Context, id, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != models.PostStatusInProgress {
		return repository.ErrNotInProgress
	}
	p.Status = models.PostStatusFailed
	p.ErrorMessage.String, p.ErrorMessage.Valid = errorMessage, true
	p.InstagramPostID.Valid = false
	p.PublishedAt.Valid = false
	return nil
}

func noSleep(context.Context, time.Duration) error { return nil }
