package job

import (
	"context"
	"time"

	"github.com/blaircullen/socialdesk/internal/service"
)

// DispatchSweepJob is the periodic safety net behind the one-shot
// dispatch tasks: it catches posts whose task was lost or whose
// schedule was edited past its original task. Attempting a post twice
// is safe; the sending claim admits one winner.
type DispatchSweepJob struct {
	dispatcher service.DispatchService
}

func NewDispatchSweepJob(dispatcher service.DispatchService) *DispatchSweepJob {
	return &DispatchSweepJob{dispatcher: dispatcher}
}

func (j *DispatchSweepJob) Sweep() {
	j.dispatcher.DispatchDue(context.Background(), time.Now())
}
