package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/blaircullen/socialdesk/internal/models"
	"github.com/blaircullen/socialdesk/internal/repository"
	"github.com/blaircullen/socialdesk/internal/transfer"
)

// scheduleLayout matches the datetime-local inputs the admin UI sends.
const scheduleLayout = "2006-01-02T15:04"

type QueueService interface {
	Queue(ctx context.Context, pc *transfer.PostCreation, imageURL string) ([]*models.SocialPost, error)
	List(ctx context.Context, filter repository.PostFilter) ([]*transfer.PostView, error)
	PostInfo(ctx context.Context, postID string) (*transfer.PostView, error)
	Approve(ctx context.Context, postID string) (*models.SocialPost, error)
	Retry(ctx context.Context, postID string) (*models.SocialPost, error)
	UpdateCaption(ctx context.Context, postID, caption string) error
	UpdateSchedule(ctx context.Context, postID string, raw string) (*models.SocialPost, error)
	Remove(ctx context.Context, postID string) error
	BatchApprove(ctx context.Context, postIDs []string) (*transfer.BatchResult, error)
	BatchDelete(ctx context.Context, postIDs []string) (*transfer.BatchResult, error)
}

type queueService struct {
	pr      repository.SocialPostRepository
	ar      repository.ArticleRepository
	ac      repository.SocialAccountRepository
	advisor AdvisorService
}

func NewQueueService(
	pr repository.SocialPostRepository,
	ar repository.ArticleRepository,
	ac repository.SocialAccountRepository,
	advisor AdvisorService) QueueService {
	return &queueService{
		pr:      pr,
		ar:      ar,
		ac:      ac,
		advisor: advisor,
	}
}

// Queue creates one post per entry, all referencing the same article.
// Entries without a schedule get the advisor suggestion (or the flat
// one-hour default). Account and article must exist; an inactive
// account is rejected up front rather than failing at dispatch.
func (s *queueService) Queue(ctx context.Context, pc *transfer.PostCreation, imageURL string) ([]*models.SocialPost, error) {
	if pc == nil || pc.ArticleID == "" {
		return nil, &ValidationError{Reason: "article id is required"}
	}
	if len(pc.Entries) == 0 {
		return nil, &ValidationError{Reason: "no accounts selected"}
	}

	article, err := s.ar.GetByID(ctx, pc.ArticleID)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, &NotFound{Kind: "article", ID: pc.ArticleID}
	}

	created := make([]*models.SocialPost, 0, len(pc.Entries))
	for _, entry := range pc.Entries {
		account, err := s.ac.GetByID(ctx, entry.AccountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, &NotFound{Kind: "account", ID: entry.AccountID}
		}
		if !account.Active {
			return nil, &ValidationError{Reason: "account " + account.Handle + " is inactive"}
		}

		scheduledAt, err := s.resolveSchedule(ctx, entry.ScheduledAt, entry.AccountID, pc.UseAdvisor)
		if err != nil {
			return nil, err
		}

		id, err := gonanoid.New()
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}

		post := &models.SocialPost{
			ID:          id,
			ArticleID:   article.ID,
			AccountID:   account.ID,
			Caption:     entry.Caption,
			ImageURL:    imageURL,
			ArticleURL:  article.CanonicalURL,
			ScheduledAt: scheduledAt,
			Status:      models.PostStatusPending,
		}
		if err := s.pr.Create(ctx, post); err != nil {
			return nil, err
		}
		created = append(created, post)
	}

	return created, nil
}

func (s *queueService) resolveSchedule(ctx context.Context, raw, accountID string, useAdvisor bool) (time.Time, error) {
	if raw != "" {
		t, err := time.Parse(scheduleLayout, raw)
		if err != nil {
			return time.Time{}, &ValidationError{Reason: "invalid scheduled time: " + raw}
		}
		return t, nil
	}
	if useAdvisor {
		return s.advisor.SuggestSendTime(ctx, accountID, time.Now())
	}
	return time.Now().Add(time.Hour), nil
}

func (s *queueService) List(ctx context.Context, filter repository.PostFilter) ([]*transfer.PostView, error) {
	posts, err := s.pr.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.toViews(ctx, posts)
}

func (s *queueService) PostInfo(ctx context.Context, postID string) (*transfer.PostView, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	views, err := s.toViews(ctx, []*models.SocialPost{post})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// Approve moves pending to approved. A second approve of the same post
// is a no-op returning the current state, so a double-click never
// surfaces an error.
func (s *queueService) Approve(ctx context.Context, postID string) (*models.SocialPost, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusApproved {
		return post, nil
	}

	ok, err := s.pr.Approve(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race or the post is not pending. A concurrent approve
		// winning the race is still a success for this caller.
		current, err := s.getPost(ctx, postID)
		if err == nil && current.Status == models.PostStatusApproved {
			return current, nil
		}
		return nil, s.transitionError(ctx, postID, post.Status, "approve")
	}

	return s.getPost(ctx, postID)
}

// Retry clears the failure and re-enters the queue as pending.
func (s *queueService) Retry(ctx context.Context, postID string) (*models.SocialPost, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	ok, err := s.pr.Retry(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionError(ctx, postID, post.Status, "retry")
	}

	return s.getPost(ctx, postID)
}

func (s *queueService) UpdateCaption(ctx context.Context, postID, caption string) error {
	if caption == "" {
		return &ValidationError{Reason: "caption cannot be empty"}
	}

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}

	ok, err := s.pr.UpdateCaption(ctx, postID, caption)
	if err != nil {
		return err
	}
	if !ok {
		return s.transitionError(ctx, postID, post.Status, "edit caption of")
	}
	return nil
}

func (s *queueService) UpdateSchedule(ctx context.Context, postID string, raw string) (*models.SocialPost, error) {
	scheduledAt, err := time.Parse(scheduleLayout, raw)
	if err != nil {
		return nil, &ValidationError{Reason: "invalid scheduled time: " + raw}
	}

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	ok, err := s.pr.UpdateSchedule(ctx, postID, scheduledAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionError(ctx, postID, post.Status, "reschedule")
	}

	return s.getPost(ctx, postID)
}

func (s *queueService) Remove(ctx context.Context, postID string) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}

	ok, err := s.pr.Delete(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return s.transitionError(ctx, postID, post.Status, "delete")
	}
	return nil
}

// BatchApprove applies approve to each post independently. Ineligible
// posts are reported, never aborting the rest; the batch is not atomic.
func (s *queueService) BatchApprove(ctx context.Context, postIDs []string) (*transfer.BatchResult, error) {
	result := &transfer.BatchResult{}
	for _, id := range postIDs {
		item := transfer.BatchItemResult{PostID: id}

		post, err := s.getPost(ctx, id)
		switch {
		case err != nil:
			item.Reason = batchSkipReason(err)
			result.Skipped++
		case post.Status == models.PostStatusApproved:
			// Already approved is a success for a lone Approve call, but
			// a batch reports it as a skip so the caller sees no change.
			item.Reason = "already approved"
			result.Skipped++
		default:
			if _, err := s.Approve(ctx, id); err != nil {
				item.Reason = batchSkipReason(err)
				result.Skipped++
			} else {
				item.Changed = true
				result.Changed++
			}
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func (s *queueService) BatchDelete(ctx context.Context, postIDs []string) (*transfer.BatchResult, error) {
	result := &transfer.BatchResult{}
	for _, id := range postIDs {
		item := transfer.BatchItemResult{PostID: id}

		err := s.Remove(ctx, id)
		switch {
		case err == nil:
			item.Changed = true
			result.Changed++
		default:
			item.Reason = batchSkipReason(err)
			result.Skipped++
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func batchSkipReason(err error) string {
	var nf *NotFound
	if errors.As(err, &nf) {
		return "not found"
	}
	var it *InvalidTransition
	if errors.As(err, &it) {
		if it.Current == models.PostStatusSending {
			return "in flight"
		}
		return "status " + string(it.Current)
	}
	return err.Error()
}

func (s *queueService) getPost(ctx context.Context, postID string) (*models.SocialPost, error) {
	if postID == "" {
		return nil, &ValidationError{Reason: "post id is required"}
	}
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, &NotFound{Kind: "post", ID: postID}
	}
	return post, nil
}

// transitionError refetches before reporting so a status raced by a
// concurrent actor is reported accurately.
func (s *queueService) transitionError(ctx context.Context, postID string, lastSeen models.PostStatus, requested string) error {
	current := lastSeen
	if post, err := s.pr.GetByID(ctx, postID); err == nil && post != nil {
		current = post.Status
	}
	return &InvalidTransition{PostID: postID, Current: current, Requested: requested}
}

func (s *queueService) toViews(ctx context.Context, posts []*models.SocialPost) ([]*transfer.PostView, error) {
	views := make([]*transfer.PostView, 0, len(posts))
	articles := make(map[string]*models.Article)

	accountIDs := make([]string, 0, len(posts))
	seen := make(map[string]bool, len(posts))
	for _, post := range posts {
		if !seen[post.AccountID] {
			seen[post.AccountID] = true
			accountIDs = append(accountIDs, post.AccountID)
		}
	}
	accounts, err := s.ac.GetByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	for _, post := range posts {
		article, ok := articles[post.ArticleID]
		if !ok {
			var err error
			article, err = s.ar.GetByID(ctx, post.ArticleID)
			if err != nil {
				return nil, err
			}
			articles[post.ArticleID] = article
		}
		account := accounts[post.AccountID]

		view := &transfer.PostView{Post: post}
		if article != nil {
			view.ArticleHeadline = article.Headline
			view.ArticleImageURL = article.ImageURL
		}
		if account != nil {
			view.AccountName = account.DisplayName
			view.AccountHandle = account.Handle
			view.Platform = account.Platform
		}
		views = append(views, view)
	}
	return views, nil
}
