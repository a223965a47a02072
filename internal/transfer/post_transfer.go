package transfer

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	OperatorID string `json:"operator_id"`
	jwt.RegisteredClaims
}

// QueueEntry is one account's slot in a bulk queue request.
type QueueEntry struct {
	AccountID   string `json:"account_id"`
	Caption     string `json:"caption"`
	ScheduledAt string `json:"scheduled_at"`
}

// PostCreation queues one article across selected accounts with
// per-account caption and schedule.
type PostCreation struct {
	ArticleID string       `json:"article_id"`
	Entries   []QueueEntry `json:"entries"`
	// When true and an entry has no schedule, the advisor's
	// profile-informed suggestion is used instead of the flat default.
	UseAdvisor bool `json:"use_advisor"`
}

type CaptionUpdate struct {
	PostID  string `json:"post_id"`
	Caption string `json:"caption"`
}

type ScheduleUpdate struct {
	PostID      string `json:"post_id"`
	ScheduledAt string `json:"scheduled_at"`
}

type BatchRequest struct {
	PostIDs []string `json:"post_ids"`
}

// BatchItemResult reports one post's outcome inside a batch operation.
// Batches are not atomic; skipped items carry the reason.
type BatchItemResult struct {
	PostID  string `json:"post_id"`
	Changed bool   `json:"changed"`
	Reason  string `json:"reason,omitempty"`
}

type BatchResult struct {
	Changed int               `json:"changed"`
	Skipped int               `json:"skipped"`
	Items   []BatchItemResult `json:"items"`
}
