package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaircullen/socialdesk/internal/models"
	"github.com/blaircullen/socialdesk/internal/transfer"
)

func testAccount(id, name string, platform models.Platform) *models.SocialAccount {
	return &models.SocialAccount{
		ID:          id,
		Platform:    platform,
		Handle:      "@" + name,
		DisplayName: name,
		Active:      true,
	}
}

func testArticle(id string) *models.Article {
	return &models.Article{
		ID:           id,
		Headline:     "Breaking: X",
		CanonicalURL: "https://news.example.com/" + id,
	}
}

func testPost(id string, status models.PostStatus) *models.SocialPost {
	return &models.SocialPost{
		ID:          id,
		ArticleID:   "art-1",
		AccountID:   "acc-1",
		Caption:     "Breaking: X",
		ArticleURL:  "https://news.example.com/art-1",
		ScheduledAt: time.Now().Add(time.Hour),
		Status:      status,
	}
}

func newQueueService(pr *fakePostRepo, accounts ...*models.SocialAccount) QueueService {
	if len(accounts) == 0 {
		accounts = []*models.SocialAccount{testAccount("acc-1", "Alice", models.PlatformX)}
	}
	accountRepo := newFakeAccountRepo(accounts...)
	advisor := NewAdvisorService(newFakeProfileRepo(), accountRepo)
	return NewQueueService(pr, newFakeArticleRepo(testArticle("art-1")), accountRepo, advisor)
}

func TestQueueCreatesPendingPosts(t *testing.T) {
	pr := newFakePostRepo()
	qs := newQueueService(pr,
		testAccount("acc-1", "Alice", models.PlatformX),
		testAccount("acc-2", "Bob", models.PlatformFacebook))

	created, err := qs.Queue(context.Background(), &transfer.PostCreation{
		ArticleID: "art-1",
		Entries: []transfer.QueueEntry{
			{AccountID: "acc-1", Caption: "Breaking: X", ScheduledAt: "2026-09-01T09:00"},
			{AccountID: "acc-2", Caption: "ICYMI: X", ScheduledAt: "2026-09-01T10:30"},
		},
	}, "")
	require.NoError(t, err)
	require.Len(t, created, 2)

	for _, post := range created {
		assert.Equal(t, models.PostStatusPending, post.Status)
		assert.Equal(t, "https://news.example.com/art-1", post.ArticleURL)
		assert.Nil(t, post.PlatformPostID)
		assert.Nil(t, post.SentAt)
	}
	assert.Equal(t, "Breaking: X", created[0].Caption)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), created[0].ScheduledAt)
}

func TestQueueDefaultsScheduleToOneHourOut(t *testing.T) {
	pr := newFakePostRepo()
	qs := newQueueService(pr)

	before := time.Now()
	created, err := qs.Queue(context.Background(), &transfer.PostCreation{
		ArticleID: "art-1",
		Entries:   []transfer.QueueEntry{{AccountID: "acc-1", Caption: "Breaking: X"}},
	}, "")
	require.NoError(t, err)
	require.Len(t, created, 1)

	got := created[0].ScheduledAt
	assert.WithinDuration(t, before.Add(time.Hour), got, 5*time.Second)
}

func TestQueueUnknownArticle(t *testing.T) {
	qs := newQueueService(newFakePostRepo())

	_, err := qs.Queue(context.Background(), &transfer.PostCreation{
		ArticleID: "nope",
		Entries:   []transfer.QueueEntry{{AccountID: "acc-1"}},
	}, "")

	var nf *NotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "article", nf.Kind)
}

func TestQueueRejectsInactiveAccount(t *testing.T) {
	inactive := testAccount("acc-1", "Alice", models.PlatformX)
	inactive.Active = false
	qs := newQueueService(newFakePostRepo(), inactive)

	_, err := qs.Queue(context.Background(), &transfer.PostCreation{
		ArticleID: "art-1",
		Entries:   []transfer.QueueEntry{{AccountID: "acc-1", Caption: "x"}},
	}, "")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestApproveIsIdempotent(t *testing.T) {
	pr := newFakePostRepo(testPost("p1", models.PostStatusPending))
	qs := newQueueService(pr)

	first, err := qs.Approve(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusApproved, first.Status)

	second, err := qs.Approve(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusApproved, second.Status)
}

func TestApproveRejectedFromTerminalStatuses(t *testing.T) {
	for _, status := range []models.PostStatus{models.PostStatusSending, models.PostStatusSent, models.PostStatusFailed} {
		pr := newFakePostRepo(testPost("p1", status))
		qs := newQueueService(pr)

		_, err := qs.Approve(context.Background(), "p1")

		var it *InvalidTransition
		require.ErrorAs(t, err, &it, "status %s", status)
		assert.Equal(t, status, it.Current)
		assert.Equal(t, "approve", it.Requested)
	}
}

func TestRetryOnlyFromFailed(t *testing.T) {
	failed := testPost("p1", models.PostStatusFailed)
	msg := "platform rejected the post"
	failed.ErrorMessage = &msg

	pr := newFakePostRepo(failed)
	qs := newQueueService(pr)

	post, err := qs.Retry(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPending, post.Status)
	assert.Nil(t, post.ErrorMessage)

	_, err = qs.Retry(context.Background(), "p1")
	var it *InvalidTransition
	require.ErrorAs(t, err, &it)
	assert.Equal(t, models.PostStatusPending, it.Current)
}

func TestEditAllowedWhileEditable(t *testing.T) {
	for _, status := range []models.PostStatus{models.PostStatusPending, models.PostStatusApproved, models.PostStatusFailed} {
		pr := newFakePostRepo(testPost("p1", status))
		qs := newQueueService(pr)

		err := qs.UpdateCaption(context.Background(), "p1", "rewritten")
		require.NoError(t, err, "status %s", status)

		post, err := qs.UpdateSchedule(context.Background(), "p1", "2026-09-02T08:00")
		require.NoError(t, err, "status %s", status)

		// Editing never changes status.
		assert.Equal(t, status, post.Status)
		assert.Equal(t, "rewritten", post.Caption)
	}
}

func TestEditRejectedOnceInFlightOrDone(t *testing.T) {
	for _, status := range []models.PostStatus{models.PostStatusSending, models.PostStatusSent} {
		pr := newFakePostRepo(testPost("p1", status))
		qs := newQueueService(pr)

		err := qs.UpdateCaption(context.Background(), "p1", "too late")
		var it *InvalidTransition
		require.ErrorAs(t, err, &it, "status %s", status)

		_, err = qs.UpdateSchedule(context.Background(), "p1", "2026-09-02T08:00")
		require.ErrorAs(t, err, &it, "status %s", status)

		post := pr.get("p1")
		assert.Equal(t, status, post.Status)
		assert.Equal(t, "Breaking: X", post.Caption)
	}
}

func TestRemoveForbiddenForSendingAndSent(t *testing.T) {
	for _, status := range []models.PostStatus{models.PostStatusSending, models.PostStatusSent} {
		pr := newFakePostRepo(testPost("p1", status))
		qs := newQueueService(pr)

		err := qs.Remove(context.Background(), "p1")
		var it *InvalidTransition
		require.ErrorAs(t, err, &it, "status %s", status)
		assert.NotNil(t, pr.get("p1"))
	}
}

func TestBatchApproveSkipsIneligibleWithoutAborting(t *testing.T) {
	pr := newFakePostRepo(
		testPost("a", models.PostStatusPending),
		testPost("b", models.PostStatusApproved),
		testPost("c", models.PostStatusSent),
	)
	qs := newQueueService(pr)

	result, err := qs.BatchApprove(context.Background(), []string{"a", "b", "c", "ghost"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Changed)
	assert.Equal(t, 3, result.Skipped)
	require.Len(t, result.Items, 4)

	assert.True(t, result.Items[0].Changed)
	assert.False(t, result.Items[1].Changed)
	assert.Equal(t, "already approved", result.Items[1].Reason)
	assert.False(t, result.Items[2].Changed)
	assert.Equal(t, "status sent", result.Items[2].Reason)
	assert.Equal(t, "not found", result.Items[3].Reason)
}

func TestBatchApproveAlreadyApprovedIsSkipped(t *testing.T) {
	pr := newFakePostRepo(testPost("a", models.PostStatusApproved))
	qs := newQueueService(pr)

	result, err := qs.BatchApprove(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Changed)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Items, 1)
	assert.False(t, result.Items[0].Changed)
	assert.Equal(t, "already approved", result.Items[0].Reason)
}

func TestBatchDeleteReportsInFlight(t *testing.T) {
	pr := newFakePostRepo(
		testPost("postA", models.PostStatusPending),
		testPost("postB", models.PostStatusSending),
		testPost("postC", models.PostStatusFailed),
	)
	qs := newQueueService(pr)

	result, err := qs.BatchDelete(context.Background(), []string{"postA", "postB", "postC"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Changed)
	assert.Equal(t, 1, result.Skipped)

	assert.True(t, result.Items[0].Changed)
	assert.False(t, result.Items[1].Changed)
	assert.Equal(t, "in flight", result.Items[1].Reason)
	assert.True(t, result.Items[2].Changed)

	assert.Nil(t, pr.get("postA"))
	assert.NotNil(t, pr.get("postB"))
	assert.Nil(t, pr.get("postC"))
}

func TestListJoinsDisplayFields(t *testing.T) {
	pr := newFakePostRepo(testPost("p1", models.PostStatusPending))
	qs := newQueueService(pr)

	views, err := qs.List(context.Background(), listAll())
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Equal(t, "Breaking: X", views[0].ArticleHeadline)
	assert.Equal(t, "Alice", views[0].AccountName)
	assert.Equal(t, models.PlatformX, views[0].Platform)
}
