package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	config "github.com/blaircullen/socialdesk/configs"
	"github.com/blaircullen/socialdesk/internal/models"
	"github.com/blaircullen/socialdesk/internal/repository"
)

// dispatchConcurrency caps sends in flight across distinct posts.
// Per-post serialization comes from the claim, not from this limit.
const dispatchConcurrency = 10

// DispatchService turns due posts into publish attempts. Every path in
// funnels through the sending claim, so no sequence of concurrent
// calls can reach the publisher twice for one post without an
// intervening retry.
type DispatchService interface {
	// Dispatch is the scheduled path: claims from pending/approved.
	Dispatch(ctx context.Context, postID string) error
	// SendNow is the operator path: additionally claims from failed.
	SendNow(ctx context.Context, postID string) (*models.SocialPost, error)
	// DispatchDue attempts every due post, oldest schedule first.
	DispatchDue(ctx context.Context, now time.Time)
}

type dispatchService struct {
	cfg       config.Config
	pr        repository.SocialPostRepository
	ac        repository.SocialAccountRepository
	publisher Publisher
}

func NewDispatchService(
	cfg config.Config,
	pr repository.SocialPostRepository,
	ac repository.SocialAccountRepository,
	publisher Publisher) DispatchService {
	return &dispatchService{
		cfg:       cfg,
		pr:        pr,
		ac:        ac,
		publisher: publisher,
	}
}

func (s *dispatchService) Dispatch(ctx context.Context, postID string) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		// Deleted since it was enqueued; its dispatch is cancelled.
		return nil
	}
	if post.ScheduledAt.After(time.Now()) {
		// The schedule moved after this task was enqueued; the edit
		// enqueued a replacement at the new time.
		return nil
	}
	return s.attempt(ctx, post, models.DispatchableStatuses(), "send")
}

func (s *dispatchService) SendNow(ctx context.Context, postID string) (*models.SocialPost, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, &NotFound{Kind: "post", ID: postID}
	}

	attemptErr := s.attempt(ctx, post, models.SendNowStatuses(), "send now")

	refreshed, err := s.pr.GetByID(ctx, postID)
	if err == nil && refreshed != nil {
		post = refreshed
	}
	return post, attemptErr
}

func (s *dispatchService) DispatchDue(ctx context.Context, now time.Time) {
	due, err := s.pr.ListDue(ctx, now)
	if err != nil {
		slog.Error("listing due posts", "error", err)
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, dispatchConcurrency)

	for _, post := range due {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(post *models.SocialPost) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := s.attempt(ctx, post, models.DispatchableStatuses(), "send"); err != nil {
				// Absorbed: a background sweep has no caller to
				// report to. The post carries its own outcome.
				slog.Info("dispatch attempt", "post_id", post.ID, "error", err)
			}
		}(post)
	}

	wg.Wait()
}

// attempt runs the full send protocol for one post: validate, claim,
// publish, record. The claim is the exactly-once gate; losing it means
// another dispatch owns the post.
func (s *dispatchService) attempt(ctx context.Context, post *models.SocialPost, from []models.PostStatus, requested string) error {
	if post.Caption == "" {
		return &ValidationError{Reason: "caption cannot be empty"}
	}
	if post.ScheduledAt.IsZero() {
		return &ValidationError{Reason: "scheduled time is not set"}
	}

	claimed, err := s.pr.ClaimForSending(ctx, post.ID, from)
	if err != nil {
		return err
	}
	if !claimed {
		current := post.Status
		if now, err := s.pr.GetByID(ctx, post.ID); err == nil && now != nil {
			current = now.Status
		}
		return &InvalidTransition{PostID: post.ID, Current: current, Requested: requested}
	}

	account, err := s.ac.GetByID(ctx, post.AccountID)
	if err != nil || account == nil {
		msg := "account " + post.AccountID + " unavailable"
		if markErr := s.pr.MarkFailed(ctx, post.ID, msg); markErr != nil {
			slog.Error("recording failure", "post_id", post.ID, "error", markErr)
		}
		return &PublishFailure{PostID: post.ID, Msg: msg}
	}

	publishCtx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()

	platformPostID, err := s.publisher.Publish(publishCtx, BuildPublishRequest(post, account))
	if err != nil {
		if markErr := s.pr.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
			slog.Error("recording failure", "post_id", post.ID, "error", markErr)
		}
		return &PublishFailure{PostID: post.ID, Msg: err.Error()}
	}

	if err := s.pr.MarkSent(ctx, post.ID, platformPostID, time.Now()); err != nil {
		slog.Error("recording success", "post_id", post.ID, "platform_post_id", platformPostID, "error", err)
		return err
	}

	return nil
}
