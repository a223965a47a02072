package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/blaircullen/socialdesk/configs"
	"github.com/blaircullen/socialdesk/internal/models"
)

func newDispatchService(pr *fakePostRepo, publisher Publisher) DispatchService {
	cfg := config.Config{PublishTimeout: 2 * time.Second}
	accountRepo := newFakeAccountRepo(testAccount("acc-1", "Alice", models.PlatformX))
	return NewDispatchService(cfg, pr, accountRepo, publisher)
}

func duePost(id string, status models.PostStatus) *models.SocialPost {
	post := testPost(id, status)
	post.ScheduledAt = time.Now().Add(-time.Minute)
	return post
}

func TestDispatchHappyPath(t *testing.T) {
	pr := newFakePostRepo(duePost("p1", models.PostStatusApproved))
	publisher := &fakePublisher{postID: "x-12345"}
	ds := newDispatchService(pr, publisher)

	err := ds.Dispatch(context.Background(), "p1")
	require.NoError(t, err)

	post := pr.get("p1")
	assert.Equal(t, models.PostStatusSent, post.Status)
	require.NotNil(t, post.PlatformPostID)
	assert.Equal(t, "x-12345", *post.PlatformPostID)
	require.NotNil(t, post.SentAt)
	assert.Nil(t, post.ErrorMessage)
	assert.EqualValues(t, 1, publisher.calls.Load())
}

func TestDispatchFailureRecordedOnPost(t *testing.T) {
	pr := newFakePostRepo(duePost("p1", models.PostStatusPending))
	publisher := &fakePublisher{err: errPlatformDown}
	ds := newDispatchService(pr, publisher)

	err := ds.Dispatch(context.Background(), "p1")

	var pf *PublishFailure
	require.ErrorAs(t, err, &pf)

	post := pr.get("p1")
	assert.Equal(t, models.PostStatusFailed, post.Status)
	require.NotNil(t, post.ErrorMessage)
	assert.Equal(t, "platform rejected the post", *post.ErrorMessage)
	assert.Nil(t, post.PlatformPostID)
	assert.Nil(t, post.SentAt)
	// The caption survives for a retry without retyping.
	assert.Equal(t, "Breaking: X", post.Caption)
}

func TestFailThenRetryThenSent(t *testing.T) {
	pr := newFakePostRepo(duePost("p1", models.PostStatusApproved))
	publisher := &fakePublisher{err: errPlatformDown}
	ds := newDispatchService(pr, publisher)
	qs := newQueueService(pr)

	require.Error(t, ds.Dispatch(context.Background(), "p1"))
	assert.Equal(t, models.PostStatusFailed, pr.get("p1").Status)

	post, err := qs.Retry(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPending, post.Status)
	assert.Nil(t, post.ErrorMessage)

	publisher.err = nil
	require.NoError(t, ds.Dispatch(context.Background(), "p1"))

	final := pr.get("p1")
	assert.Equal(t, models.PostStatusSent, final.Status)
	require.NotNil(t, final.PlatformPostID)
	assert.EqualValues(t, 2, publisher.calls.Load())
}

func TestConcurrentSendsInvokePublisherOnce(t *testing.T) {
	pr := newFakePostRepo(duePost("p1", models.PostStatusApproved))
	publisher := &fakePublisher{delay: 20 * time.Millisecond}
	ds := newDispatchService(pr, publisher)

	const attempts = 16
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(sendNow bool) {
			defer wg.Done()
			if sendNow {
				ds.SendNow(context.Background(), "p1")
			} else {
				ds.Dispatch(context.Background(), "p1")
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.EqualValues(t, 1, publisher.calls.Load())
	assert.Equal(t, models.PostStatusSent, pr.get("p1").Status)
}

func TestSendNowClaimsFailedPosts(t *testing.T) {
	failed := duePost("p1", models.PostStatusFailed)
	msg := "earlier failure"
	failed.ErrorMessage = &msg

	pr := newFakePostRepo(failed)
	publisher := &fakePublisher{}
	ds := newDispatchService(pr, publisher)

	post, err := ds.SendNow(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusSent, post.Status)
	assert.EqualValues(t, 1, publisher.calls.Load())
}

func TestScheduledDispatchDoesNotClaimFailed(t *testing.T) {
	pr := newFakePostRepo(duePost("p1", models.PostStatusFailed))
	publisher := &fakePublisher{}
	ds := newDispatchService(pr, publisher)

	err := ds.Dispatch(context.Background(), "p1")

	var it *InvalidTransition
	require.ErrorAs(t, err, &it)
	assert.Equal(t, models.PostStatusFailed, it.Current)
	assert.EqualValues(t, 0, publisher.calls.Load())
}

func TestDispatchEmptyCaptionNeverClaims(t *testing.T) {
	post := duePost("p1", models.PostStatusApproved)
	post.Caption = ""

	pr := newFakePostRepo(post)
	publisher := &fakePublisher{}
	ds := newDispatchService(pr, publisher)

	err := ds.Dispatch(context.Background(), "p1")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	// Status untouched: never sending without valid content.
	assert.Equal(t, models.PostStatusApproved, pr.get("p1").Status)
	assert.EqualValues(t, 0, publisher.calls.Load())
}

func TestDispatchSkipsRescheduledPost(t *testing.T) {
	post := testPost("p1", models.PostStatusApproved)
	post.ScheduledAt = time.Now().Add(time.Hour)

	pr := newFakePostRepo(post)
	publisher := &fakePublisher{}
	ds := newDispatchService(pr, publisher)

	require.NoError(t, ds.Dispatch(context.Background(), "p1"))
	assert.Equal(t, models.PostStatusApproved, pr.get("p1").Status)
	assert.EqualValues(t, 0, publisher.calls.Load())
}

func TestDispatchDeletedPostIsCancelled(t *testing.T) {
	pr := newFakePostRepo()
	publisher := &fakePublisher{}
	ds := newDispatchService(pr, publisher)

	require.NoError(t, ds.Dispatch(context.Background(), "gone"))
	assert.EqualValues(t, 0, publisher.calls.Load())
}

func TestPublisherTimeoutResolvesToFailed(t *testing.T) {
	pr := newFakePostRepo(duePost("p1", models.PostStatusApproved))
	publisher := &fakePublisher{delay: 5 * time.Second}
	cfg := config.Config{PublishTimeout: 30 * time.Millisecond}
	accountRepo := newFakeAccountRepo(testAccount("acc-1", "Alice", models.PlatformX))
	ds := NewDispatchService(cfg, pr, accountRepo, publisher)

	err := ds.Dispatch(context.Background(), "p1")

	var pf *PublishFailure
	require.ErrorAs(t, err, &pf)

	post := pr.get("p1")
	assert.Equal(t, models.PostStatusFailed, post.Status)
	require.NotNil(t, post.ErrorMessage)
}

func TestDispatchDueAttemptsAllDuePosts(t *testing.T) {
	pr := newFakePostRepo(
		duePost("p1", models.PostStatusApproved),
		duePost("p2", models.PostStatusPending),
		testPost("p3", models.PostStatusApproved), // not due yet
	)
	publisher := &fakePublisher{}
	ds := newDispatchService(pr, publisher)

	ds.DispatchDue(context.Background(), time.Now())

	assert.EqualValues(t, 2, publisher.calls.Load())
	assert.Equal(t, models.PostStatusSent, pr.get("p1").Status)
	assert.Equal(t, models.PostStatusSent, pr.get("p2").Status)
	assert.Equal(t, models.PostStatusApproved, pr.get("p3").Status)
}
