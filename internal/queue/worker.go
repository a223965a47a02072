package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/blaircullen/socialdesk/internal/service"
)

// HandleDispatchPostTask runs one scheduled dispatch. Outcomes that
// are part of the state machine (publish failure, lost claim, missing
// post) are absorbed here rather than returned, so asynq's own retry
// never fights the queue's FAILED→PENDING retry.
func (q *Queue) HandleDispatchPostTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	err := q.dispatcher.Dispatch(ctx, payload.PostID)
	if err == nil {
		return nil
	}

	var pf *service.PublishFailure
	var it *service.InvalidTransition
	var ve *service.ValidationError
	switch {
	case errors.As(err, &pf):
		slog.Info("publish failed, post marked for retry", "post_id", payload.PostID, "error", pf.Msg)
		return nil
	case errors.As(err, &it):
		slog.Info("dispatch skipped", "post_id", payload.PostID, "status", it.Current)
		return nil
	case errors.As(err, &ve):
		slog.Warn("post not sendable", "post_id", payload.PostID, "reason", ve.Reason)
		return nil
	}

	// Infrastructure errors are worth an asynq retry.
	return err
}
