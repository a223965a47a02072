package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueueDispatch schedules a one-shot dispatch task for a post.
// Enqueued again on schedule edits and retries; duplicate tasks are
// harmless because the sending claim admits only one winner.
func EnqueueDispatch(asynqClient *asynq.Client, payload DispatchPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeDispatchPost, taskPayload)

	if delay < 0 {
		delay = 0
	}

	_, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	log.Printf("Dispatch scheduled: %+v in %s", payload, delay)
	return nil
}
