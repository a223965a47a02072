package queue

import (
	"github.com/blaircullen/socialdesk/internal/service"
)

type Queue struct {
	dispatcher service.DispatchService
}

func NewQueue(dispatcher service.DispatchService) *Queue {
	return &Queue{dispatcher: dispatcher}
}

const TaskTypeDispatchPost = "dispatch:post"

type DispatchPostPayload struct {
	PostID string `json:"post_id"`
}
