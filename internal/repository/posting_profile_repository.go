package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/blaircullen/socialdesk/internal/models"
)

// PostingProfileRepository reads the engagement grids owned by the
// analytics job. The grid column is JSONB.
type PostingProfileRepository interface {
	GetByAccountID(ctx context.Context, accountID string) (*models.PostingProfile, error)
}

type postingProfileRepository struct {
	db *sql.DB
}

func NewPostingProfileRepository(db *sql.DB) PostingProfileRepository {
	return &postingProfileRepository{db: db}
}

func (r *postingProfileRepository) GetByAccountID(ctx context.Context, accountID string) (*models.PostingProfile, error) {
	query := `SELECT account_id, weekly_scores, data_points, updated_at FROM posting_profiles WHERE account_id = $1`
	row := r.db.QueryRowContext(ctx, query, accountID)

	var profile models.PostingProfile
	var scores []byte
	err := row.Scan(&profile.AccountID, &scores, &profile.DataPoints, &profile.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	if err := json.Unmarshal(scores, &profile.WeeklyScores); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &profile, nil
}
