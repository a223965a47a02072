package transfer

import "github.com/blaircullen/socialdesk/internal/models"

// PostView is a queue entry joined with the display fields operators
// see on the board.
type PostView struct {
	Post            *models.SocialPost `json:"post"`
	ArticleHeadline string             `json:"article_headline"`
	ArticleImageURL string             `json:"article_image_url,omitempty"`
	AccountName     string             `json:"account_name"`
	AccountHandle   string             `json:"account_handle"`
	Platform        models.Platform    `json:"platform"`
}

// BoardGroup is one account's bucket on the operator board.
type BoardGroup struct {
	AccountName string            `json:"account_name"`
	Platforms   []models.Platform `json:"platforms"`
	Urgency     int               `json:"urgency"`
	Expanded    bool              `json:"expanded"`
	Posts       []*PostView       `json:"posts"`
}

// TimeSlot is one recommended posting window. Day 0 is Sunday.
type TimeSlot struct {
	Day   int     `json:"day"`
	Hour  int     `json:"hour"`
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

type ProfileInsight struct {
	AccountID     string     `json:"account_id"`
	Freshness     string     `json:"freshness"`
	DataPoints    int        `json:"data_points"`
	MaxDataPoints int        `json:"max_data_points"`
	TopSlots      []TimeSlot `json:"top_slots"`
	SuggestedTime string     `json:"suggested_time"`
}
