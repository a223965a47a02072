package transfer

import "github.com/blaircullen/socialdesk/internal/models"

// PublishRequest is the payload handed to the platform publisher: a
// shared base plus one platform-specific variant, tagged by Platform.
// Exactly one variant field is set, matching Platform.
type PublishRequest struct {
	PostID     string          `json:"post_id"`
	Platform   models.Platform `json:"platform"`
	Handle     string          `json:"handle"`
	Caption    string          `json:"caption"`
	ImageURL   string          `json:"image_url,omitempty"`
	ArticleURL string          `json:"article_url"`

	X           *XOptions           `json:"x,omitempty"`
	Facebook    *FacebookOptions    `json:"facebook,omitempty"`
	TruthSocial *TruthSocialOptions `json:"truth_social,omitempty"`
	Instagram   *InstagramOptions   `json:"instagram,omitempty"`
}

// XOptions: the article link rides in the tweet text, cards are derived
// by the platform from the URL.
type XOptions struct {
	ReplySettings string `json:"reply_settings,omitempty"`
}

type FacebookOptions struct {
	// Facebook takes the link as a separate attachment field.
	LinkAttachment string `json:"link_attachment"`
}

type TruthSocialOptions struct {
	Visibility string `json:"visibility,omitempty"`
}

// InstagramOptions: Instagram requires an image and does not render
// links in captions, so the article URL is appended to the caption.
type InstagramOptions struct {
	MediaType string `json:"media_type"`
}

type PublishResponse struct {
	PlatformPostID string `json:"platform_post_id"`
	Error          string `json:"error,omitempty"`
}

type CaptionRequest struct {
	ArticleID string `json:"article_id"`
	AccountID string `json:"account_id"`
}

type CaptionResponse struct {
	Caption string `json:"caption"`
	Error   string `json:"error,omitempty"`
}
