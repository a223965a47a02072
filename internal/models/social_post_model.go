package models

import "time"

type PostStatus string

const (
	PostStatusPending  PostStatus = "pending"
	PostStatusApproved PostStatus = "approved"
	PostStatusSending  PostStatus = "sending"
	PostStatusSent     PostStatus = "sent"
	PostStatusFailed   PostStatus = "failed"
)

// SocialPost is one intended publication of one article to one account.
// PlatformPostID and SentAt are set exactly when status is sent;
// ErrorMessage is set exactly when status is failed.
type SocialPost struct {
	ID             string     `db:"id" json:"id"`
	ArticleID      string     `db:"article_id" json:"article_id"`
	AccountID      string     `db:"account_id" json:"account_id"`
	Caption        string     `db:"caption" json:"caption"`
	ImageURL       string     `db:"image_url" json:"image_url,omitempty"`
	ArticleURL     string     `db:"article_url" json:"article_url"`
	ScheduledAt    time.Time  `db:"scheduled_at" json:"scheduled_at"`
	SentAt         *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	PlatformPostID *string    `db:"platform_post_id" json:"platform_post_id,omitempty"`
	ErrorMessage   *string    `db:"error_message" json:"error_message,omitempty"`
	Status         PostStatus `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Editable reports whether caption and schedule may still change.
// In-flight and completed posts are immutable.
func (p *SocialPost) Editable() bool {
	switch p.Status {
	case PostStatusPending, PostStatusApproved, PostStatusFailed:
		return true
	}
	return false
}

// Deletable mirrors Editable: sending would race the in-flight call,
// sent is a historical record.
func (p *SocialPost) Deletable() bool {
	return p.Editable()
}

// EditableStatuses is the status set used by guarded caption/schedule
// updates and deletes.
func EditableStatuses() []PostStatus {
	return []PostStatus{PostStatusPending, PostStatusApproved, PostStatusFailed}
}

// DispatchableStatuses is the status set a scheduled dispatch may claim from.
func DispatchableStatuses() []PostStatus {
	return []PostStatus{PostStatusPending, PostStatusApproved}
}

// SendNowStatuses additionally allows claiming a failed post directly,
// which is how an operator retries without re-queueing.
func SendNowStatuses() []PostStatus {
	return []PostStatus{PostStatusPending, PostStatusApproved, PostStatusFailed}
}
