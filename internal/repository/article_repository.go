package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/blaircullen/socialdesk/internal/models"
)

// ArticleRepository is a read-only view of the CMS article table; the
// queue only needs display fields and the canonical link.
type ArticleRepository interface {
	GetByID(ctx context.Context, id string) (*models.Article, error)
}

type articleRepository struct {
	db *sql.DB
}

func NewArticleRepository(db *sql.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := `SELECT id, headline, image_url, canonical_url, published_at FROM articles WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var article models.Article
	err := row.Scan(&article.ID, &article.Headline, &article.ImageURL, &article.CanonicalURL, &article.PublishedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &article, nil
}
