package job

import (
	"context"
	"log/slog"
	"time"

	config "github.com/blaircullen/socialdesk/configs"
	"github.com/blaircullen/socialdesk/internal/repository"
)

// StuckSendingJob reconciles posts abandoned mid-send, e.g. by a
// process crash between the claim and the outcome write. A post still
// sending past the configured window is failed with an explicit
// message so it shows up on the board with a retry offer instead of
// sitting invisible forever.
type StuckSendingJob struct {
	cfg config.Config
	pr  repository.SocialPostRepository
}

func NewStuckSendingJob(cfg config.Config, pr repository.SocialPostRepository) *StuckSendingJob {
	return &StuckSendingJob{cfg: cfg, pr: pr}
}

const stuckMessage = "send attempt did not complete; likely interrupted mid-flight"

func (j *StuckSendingJob) Reconcile() {
	ctx := context.Background()
	cutoff := time.Now().Add(-j.cfg.StuckSendingAfter)

	stuck, err := j.pr.ListStuckSending(ctx, cutoff)
	if err != nil {
		slog.Error("listing stuck posts", "error", err)
		return
	}

	for _, post := range stuck {
		slog.Warn("reconciling stuck post", "post_id", post.ID, "claimed_at", post.UpdatedAt)
		if err := j.pr.MarkFailed(ctx, post.ID, stuckMessage); err != nil {
			slog.Error("failing stuck post", "post_id", post.ID, "error", err)
		}
	}
}
