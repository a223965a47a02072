package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blaircullen/socialdesk/internal/models"
	"github.com/blaircullen/socialdesk/internal/repository"
	"github.com/blaircullen/socialdesk/internal/transfer"
)

// fakePostRepo mirrors the store's per-row conditional updates with a
// mutex, so the concurrency tests exercise the same claim semantics
// the SQL gives us.
type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*models.SocialPost
}

func newFakePostRepo(posts ...*models.SocialPost) *fakePostRepo {
	repo := &fakePostRepo{posts: make(map[string]*models.SocialPost)}
	for _, post := range posts {
		copied := *post
		repo.posts[post.ID] = &copied
	}
	return repo
}

func (r *fakePostRepo) get(id string) *models.SocialPost {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil
	}
	copied := *post
	return &copied
}

func (r *fakePostRepo) Create(ctx context.Context, post *models.SocialPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *post
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	r.posts[post.ID] = &copied
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id string) (*models.SocialPost, error) {
	return r.get(id), nil
}

func (r *fakePostRepo) List(ctx context.Context, filter repository.PostFilter) ([]*models.SocialPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.SocialPost
	for _, post := range r.posts {
		if filter.Status != "" && post.Status != filter.Status {
			continue
		}
		if filter.AccountID != "" && post.AccountID != filter.AccountID {
			continue
		}
		copied := *post
		posts = append(posts, &copied)
	}
	return posts, nil
}

func (r *fakePostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.SocialPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.SocialPost
	for _, post := range r.posts {
		if post.ScheduledAt.After(now) {
			continue
		}
		if post.Status != models.PostStatusPending && post.Status != models.PostStatusApproved {
			continue
		}
		copied := *post
		due = append(due, &copied)
	}
	return due, nil
}

func (r *fakePostRepo) ListStuckSending(ctx context.Context, olderThan time.Time) ([]*models.SocialPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stuck []*models.SocialPost
	for _, post := range r.posts {
		if post.Status == models.PostStatusSending && !post.UpdatedAt.After(olderThan) {
			copied := *post
			stuck = append(stuck, &copied)
		}
	}
	return stuck, nil
}

func (r *fakePostRepo) ClaimForSending(ctx context.Context, id string, from []models.PostStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if post.Status == status {
			post.Status = models.PostStatusSending
			post.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePostRepo) MarkSent(ctx context.Context, id, platformPostID string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusSending {
		return nil
	}
	post.Status = models.PostStatusSent
	post.PlatformPostID = &platformPostID
	post.SentAt = &sentAt
	post.ErrorMessage = nil
	post.UpdatedAt = time.Now()
	return nil
}

func (r *fakePostRepo) MarkFailed(ctx context.Context, id, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusSending {
		return nil
	}
	post.Status = models.PostStatusFailed
	post.ErrorMessage = &errorMessage
	post.UpdatedAt = time.Now()
	return nil
}

func (r *fakePostRepo) Approve(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusPending {
		return false, nil
	}
	post.Status = models.PostStatusApproved
	post.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakePostRepo) Retry(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusFailed {
		return false, nil
	}
	post.Status = models.PostStatusPending
	post.ErrorMessage = nil
	post.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakePostRepo) UpdateCaption(ctx context.Context, id, caption string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || !post.Editable() {
		return false, nil
	}
	post.Caption = caption
	post.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakePostRepo) UpdateSchedule(ctx context.Context, id string, scheduledAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || !post.Editable() {
		return false, nil
	}
	post.ScheduledAt = scheduledAt
	post.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || !post.Deletable() {
		return false, nil
	}
	delete(r.posts, id)
	return true, nil
}

type fakeAccountRepo struct {
	accounts map[string]*models.SocialAccount
}

func newFakeAccountRepo(accounts ...*models.SocialAccount) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: make(map[string]*models.SocialAccount)}
	for _, acc := range accounts {
		repo.accounts[acc.ID] = acc
	}
	return repo
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id string) (*models.SocialAccount, error) {
	return r.accounts[id], nil
}

func (r *fakeAccountRepo) ListActive(ctx context.Context) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	for _, acc := range r.accounts {
		if acc.Active {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (r *fakeAccountRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.SocialAccount, error) {
	out := make(map[string]*models.SocialAccount)
	for _, id := range ids {
		if acc, ok := r.accounts[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

type fakeArticleRepo struct {
	articles map[string]*models.Article
}

func newFakeArticleRepo(articles ...*models.Article) *fakeArticleRepo {
	repo := &fakeArticleRepo{articles: make(map[string]*models.Article)}
	for _, article := range articles {
		repo.articles[article.ID] = article
	}
	return repo
}

func (r *fakeArticleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	return r.articles[id], nil
}

type fakeProfileRepo struct {
	profiles map[string]*models.PostingProfile
}

func newFakeProfileRepo(profiles ...*models.PostingProfile) *fakeProfileRepo {
	repo := &fakeProfileRepo{profiles: make(map[string]*models.PostingProfile)}
	for _, profile := range profiles {
		repo.profiles[profile.AccountID] = profile
	}
	return repo
}

func (r *fakeProfileRepo) GetByAccountID(ctx context.Context, accountID string) (*models.PostingProfile, error) {
	return r.profiles[accountID], nil
}

// fakePublisher counts invocations; the exactly-once tests hinge on
// that counter.
type fakePublisher struct {
	calls  atomic.Int64
	err    error
	postID string
	delay  time.Duration
}

func (p *fakePublisher) Publish(ctx context.Context, req *transfer.PublishRequest) (string, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.err != nil {
		return "", p.err
	}
	if p.postID != "" {
		return p.postID, nil
	}
	return "ext-" + req.PostID, nil
}

var errPlatformDown = errors.New("platform rejected the post")

func listAll() repository.PostFilter {
	return repository.PostFilter{}
}
