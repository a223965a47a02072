package service

import (
	"context"
	"sort"

	"github.com/blaircullen/socialdesk/internal/models"
	"github.com/blaircullen/socialdesk/internal/repository"
	"github.com/blaircullen/socialdesk/internal/transfer"
)

// Urgency ranks posts by how much operator attention they need.
// Sending collapses into approved's rank on the board.
const (
	UrgencyFailed   = 0
	UrgencyPending  = 1
	UrgencyApproved = 2
	UrgencySent     = 3
)

func UrgencyRank(status models.PostStatus) int {
	switch status {
	case models.PostStatusFailed:
		return UrgencyFailed
	case models.PostStatusPending:
		return UrgencyPending
	case models.PostStatusApproved, models.PostStatusSending:
		return UrgencyApproved
	default:
		return UrgencySent
	}
}

type BoardService interface {
	Board(ctx context.Context, filter repository.PostFilter) ([]*transfer.BoardGroup, error)
}

type boardService struct {
	qs QueueService
}

func NewBoardService(qs QueueService) BoardService {
	return &boardService{qs: qs}
}

func (s *boardService) Board(ctx context.Context, filter repository.PostFilter) ([]*transfer.BoardGroup, error) {
	views, err := s.qs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return BuildBoard(views), nil
}

// BuildBoard partitions posts into per-account groups and ranks them
// for operator attention. It is a pure function of the post list; the
// Expanded flags are advisory defaults for a fresh viewing session,
// never persisted.
func BuildBoard(views []*transfer.PostView) []*transfer.BoardGroup {
	byName := make(map[string]*transfer.BoardGroup)
	platformSeen := make(map[string]map[models.Platform]bool)

	for _, view := range views {
		group, ok := byName[view.AccountName]
		if !ok {
			group = &transfer.BoardGroup{
				AccountName: view.AccountName,
				Urgency:     UrgencySent,
			}
			byName[view.AccountName] = group
			platformSeen[view.AccountName] = make(map[models.Platform]bool)
		}

		group.Posts = append(group.Posts, view)
		if rank := UrgencyRank(view.Post.Status); rank < group.Urgency {
			group.Urgency = rank
		}
		if view.Platform != "" && !platformSeen[view.AccountName][view.Platform] {
			platformSeen[view.AccountName][view.Platform] = true
			group.Platforms = append(group.Platforms, view.Platform)
		}
	}

	groups := make([]*transfer.BoardGroup, 0, len(byName))
	for _, group := range byName {
		group.Expanded = group.Urgency <= UrgencyPending
		sort.Slice(group.Posts, func(i, j int) bool {
			return group.Posts[i].Post.ScheduledAt.Before(group.Posts[j].Post.ScheduledAt)
		})
		sort.Slice(group.Platforms, func(i, j int) bool {
			return group.Platforms[i] < group.Platforms[j]
		})
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Urgency != groups[j].Urgency {
			return groups[i].Urgency < groups[j].Urgency
		}
		return groups[i].AccountName < groups[j].AccountName
	})

	return groups
}
