package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/blaircullen/socialdesk/internal/models"
	"github.com/blaircullen/socialdesk/internal/repository"
	"github.com/blaircullen/socialdesk/internal/transfer"
)

// Profile freshness values surfaced to operators.
const (
	FreshnessActive = "active"
	FreshnessStale  = "stale"
	FreshnessNoData = "no_data"
)

// staleAfter is the window the analytics job is expected to refresh
// within; a day plus an hour of slack.
const staleAfter = 25 * time.Hour

const topSlotCount = 3

type AdvisorService interface {
	Insight(ctx context.Context, accountID string) (*transfer.ProfileInsight, error)
	SuggestSendTime(ctx context.Context, accountID string, now time.Time) (time.Time, error)
}

type advisorService struct {
	pp repository.PostingProfileRepository
	ac repository.SocialAccountRepository
}

func NewAdvisorService(pp repository.PostingProfileRepository, ac repository.SocialAccountRepository) AdvisorService {
	return &advisorService{pp: pp, ac: ac}
}

func (s *advisorService) Insight(ctx context.Context, accountID string) (*transfer.ProfileInsight, error) {
	account, err := s.ac.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &NotFound{Kind: "account", ID: accountID}
	}

	profile, err := s.pp.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	insight := &transfer.ProfileInsight{
		AccountID:     accountID,
		Freshness:     ProfileFreshness(profile, now),
		MaxDataPoints: models.MaxProfileDataPoints,
		TopSlots:      TopSlots(profile, topSlotCount),
	}
	if profile != nil {
		insight.DataPoints = profile.DataPoints
	}

	suggested := SuggestFromProfile(profile, now)
	insight.SuggestedTime = suggested.Format(time.RFC3339)

	return insight, nil
}

func (s *advisorService) SuggestSendTime(ctx context.Context, accountID string, now time.Time) (time.Time, error) {
	profile, err := s.pp.GetByAccountID(ctx, accountID)
	if err != nil {
		return time.Time{}, err
	}
	return SuggestFromProfile(profile, now), nil
}

// ProfileFreshness distinguishes a grid with no signal from one that is
// merely overdue for recomputation.
func ProfileFreshness(profile *models.PostingProfile, now time.Time) string {
	if profile == nil || profile.Empty() {
		return FreshnessNoData
	}
	if now.Sub(profile.UpdatedAt) > staleAfter {
		return FreshnessStale
	}
	return FreshnessActive
}

// TopSlots flattens the grid day-major then hour, drops zero scores and
// returns the n best. Equal scores keep flattening order; the tie-break
// carries no meaning beyond being deterministic.
func TopSlots(profile *models.PostingProfile, n int) []transfer.TimeSlot {
	if profile == nil {
		return nil
	}

	var slots []transfer.TimeSlot
	for d := 0; d < models.ProfileDays; d++ {
		for h := 0; h < models.ProfileHours; h++ {
			score := profile.WeeklyScores[d][h]
			if score <= 0 {
				continue
			}
			slots = append(slots, transfer.TimeSlot{
				Day:   d,
				Hour:  h,
				Score: score,
				Label: SlotLabel(d, h),
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Score > slots[j].Score
	})

	if len(slots) > n {
		slots = slots[:n]
	}
	return slots
}

// SuggestFromProfile returns the nearest future occurrence of a top
// slot, or the flat one-hour default when the profile has nothing to
// say.
func SuggestFromProfile(profile *models.PostingProfile, now time.Time) time.Time {
	fallback := now.Add(time.Hour)

	top := TopSlots(profile, topSlotCount)
	if len(top) == 0 {
		return fallback
	}

	best := time.Time{}
	for _, slot := range top {
		next := nextOccurrence(now, slot.Day, slot.Hour)
		if best.IsZero() || next.Before(best) {
			best = next
		}
	}
	return best
}

// nextOccurrence finds the first instant strictly after now landing on
// the given weekday (0=Sunday) at the top of the given hour.
func nextOccurrence(now time.Time, day, hour int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	dayDelta := (day - int(now.Weekday()) + models.ProfileDays) % models.ProfileDays
	candidate = candidate.AddDate(0, 0, dayDelta)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, models.ProfileDays)
	}
	return candidate
}

var weekdayNames = [models.ProfileDays]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// SlotLabel renders a grid cell for display: weekday plus 12-hour
// clock, e.g. "Monday 9am".
func SlotLabel(day, hour int) string {
	suffix := "am"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		suffix = "pm"
	case hour > 12:
		display = hour - 12
		suffix = "pm"
	}
	return fmt.Sprintf("%s %d%s", weekdayNames[day], display, suffix)
}
