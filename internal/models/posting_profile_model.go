package models

import "time"

// Hours in a day and days in a week for the engagement grid.
const (
	ProfileDays  = 7
	ProfileHours = 24
)

// MaxProfileDataPoints is the number of distinct signal sources the
// analytics job aggregates; data_points is a confidence indicator,
// not a hard cap.
const MaxProfileDataPoints = 4

// PostingProfile is the per-account weekly engagement grid. It is
// recomputed by an external analytics job; the queue only interprets
// its freshness and content. Day 0 is Sunday.
type PostingProfile struct {
	AccountID    string                             `db:"account_id" json:"account_id"`
	WeeklyScores [ProfileDays][ProfileHours]float64 `db:"weekly_scores" json:"weekly_scores"`
	DataPoints   int                                `db:"data_points" json:"data_points"`
	UpdatedAt    time.Time                          `db:"updated_at" json:"updated_at"`
}

// Empty reports whether the grid carries no signal at all.
func (p *PostingProfile) Empty() bool {
	if p.DataPoints == 0 {
		return true
	}
	for d := 0; d < ProfileDays; d++ {
		for h := 0; h < ProfileHours; h++ {
			if p.WeeklyScores[d][h] > 0 {
				return false
			}
		}
	}
	return true
}
