package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/blaircullen/socialdesk/internal/models"
)

// PostFilter narrows List results. Zero values mean "no constraint".
type PostFilter struct {
	Status    models.PostStatus
	Platform  models.Platform
	AccountID string
	Since     *time.Time
	Until     *time.Time
}

type SocialPostRepository interface {
	Create(ctx context.Context, post *models.SocialPost) error
	GetByID(ctx context.Context, id string) (*models.SocialPost, error)
	List(ctx context.Context, filter PostFilter) ([]*models.SocialPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.SocialPost, error)
	ListStuckSending(ctx context.Context, olderThan time.Time) ([]*models.SocialPost, error)
	ClaimForSending(ctx context.Context, id string, from []models.PostStatus) (bool, error)
	MarkSent(ctx context.Context, id, platformPostID string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
	Approve(ctx context.Context, id string) (bool, error)
	Retry(ctx context.Context, id string) (bool, error)
	UpdateCaption(ctx context.Context, id, caption string) (bool, error)
	UpdateSchedule(ctx context.Context, id string, scheduledAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type socialPostRepository struct {
	db *sql.DB
}

func NewSocialPostRepository(db *sql.DB) SocialPostRepository {
	return &socialPostRepository{db: db}
}

const postColumns = `id, article_id, account_id, caption, image_url, article_url, scheduled_at, sent_at, platform_post_id, error_message, status, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.SocialPost, error) {
	var post models.SocialPost
	err := row.Scan(
		&post.ID, &post.ArticleID, &post.AccountID,
		&post.Caption, &post.ImageURL, &post.ArticleURL,
		&post.ScheduledAt, &post.SentAt, &post.PlatformPostID,
		&post.ErrorMessage, &post.Status, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func statusStrings(statuses []models.PostStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *socialPostRepository) Create(ctx context.Context, post *models.SocialPost) error {
	query := `
		INSERT INTO social_posts (id, article_id, account_id, caption, image_url, article_url, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.ArticleID, post.AccountID,
		post.Caption, post.ImageURL, post.ArticleURL,
		post.ScheduledAt, post.Status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialPostRepository) GetByID(ctx context.Context, id string) (*models.SocialPost, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *socialPostRepository) List(ctx context.Context, filter PostFilter) ([]*models.SocialPost, error) {
	query := `SELECT p.id, p.article_id, p.account_id, p.caption, p.image_url, p.article_url, p.scheduled_at, p.sent_at, p.platform_post_id, p.error_message, p.status, p.created_at, p.updated_at
		FROM social_posts p
		JOIN social_accounts a ON a.id = p.account_id
		WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND p.status = $` + strconv.Itoa(len(args))
	}
	if filter.Platform != "" {
		args = append(args, string(filter.Platform))
		query += ` AND a.platform = $` + strconv.Itoa(len(args))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		query += ` AND p.account_id = $` + strconv.Itoa(len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += ` AND p.scheduled_at >= $` + strconv.Itoa(len(args))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		query += ` AND p.scheduled_at <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY p.scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ListDue returns posts whose schedule has passed and whose status
// permits a scheduled dispatch, oldest schedule first.
func (r *socialPostRepository) ListDue(ctx context.Context, now time.Time) ([]*models.SocialPost, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts
		WHERE status = ANY($1) AND scheduled_at <= $2
		ORDER BY scheduled_at ASC`
	rows, err := r.db.QueryContext(ctx, query,
		pq.Array(statusStrings(models.DispatchableStatuses())), now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *socialPostRepository) ListStuckSending(ctx context.Context, olderThan time.Time) ([]*models.SocialPost, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts
		WHERE status = $1 AND updated_at <= $2
		ORDER BY updated_at ASC`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusSending, olderThan)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ClaimForSending is the exactly-once gate: a conditional update that
// only one caller can win. The rows-affected check is the whole point;
// a claim that matched no row means another dispatch got there first
// or the post left the claimable set.
func (r *socialPostRepository) ClaimForSending(ctx context.Context, id string, from []models.PostStatus) (bool, error) {
	query := `
		UPDATE social_posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	res, err := r.db.ExecContext(ctx, query,
		models.PostStatusSending, time.Now(), id, pq.Array(statusStrings(from)))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *socialPostRepository) MarkSent(ctx context.Context, id, platformPostID string, sentAt time.Time) error {
	query := `
		UPDATE social_posts
		SET status = $1, platform_post_id = $2, sent_at = $3, error_message = NULL, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	res, err := r.db.ExecContext(ctx, query,
		models.PostStatusSent, platformPostID, sentAt, time.Now(), id, models.PostStatusSending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		// The post left SENDING between publish and record, most likely
		// failed by the reconciler. The publish succeeded but the outcome
		// cannot be written; surface it instead of losing it silently.
		slog.Warn("publish succeeded but post no longer sending",
			"post_id", id, "platform_post_id", platformPostID)
	}
	return nil
}

func (r *socialPostRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE social_posts
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	_, err := r.db.ExecContext(ctx, query,
		models.PostStatusFailed, errorMessage, time.Now(), id, models.PostStatusSending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialPostRepository) Approve(ctx context.Context, id string) (bool, error) {
	return r.guardedStatusUpdate(ctx, id, models.PostStatusApproved,
		[]models.PostStatus{models.PostStatusPending})
}

func (r *socialPostRepository) Retry(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE social_posts
		SET status = $1, error_message = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query,
		models.PostStatusPending, time.Now(), id, models.PostStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *socialPostRepository) guardedStatusUpdate(ctx context.Context, id string, to models.PostStatus, from []models.PostStatus) (bool, error) {
	query := `
		UPDATE social_posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, pq.Array(statusStrings(from)))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *socialPostRepository) UpdateCaption(ctx context.Context, id, caption string) (bool, error) {
	query := `
		UPDATE social_posts
		SET caption = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	res, err := r.db.ExecContext(ctx, query,
		caption, time.Now(), id, pq.Array(statusStrings(models.EditableStatuses())))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *socialPostRepository) UpdateSchedule(ctx context.Context, id string, scheduledAt time.Time) (bool, error) {
	query := `
		UPDATE social_posts
		SET scheduled_at = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	res, err := r.db.ExecContext(ctx, query,
		scheduledAt, time.Now(), id, pq.Array(statusStrings(models.EditableStatuses())))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *socialPostRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM social_posts WHERE id = $1 AND status = ANY($2)`
	res, err := r.db.ExecContext(ctx, query, id, pq.Array(statusStrings(models.EditableStatuses())))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func collectPosts(rows *sql.Rows) ([]*models.SocialPost, error) {
	var posts []*models.SocialPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

