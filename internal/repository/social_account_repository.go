package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"

	"github.com/blaircullen/socialdesk/internal/models"
)

// SocialAccountRepository is a read-only view of the account directory.
type SocialAccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.SocialAccount, error)
	ListActive(ctx context.Context) ([]*models.SocialAccount, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.SocialAccount, error)
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const accountColumns = `id, platform, handle, display_name, active, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.SocialAccount, error) {
	var acc models.SocialAccount
	err := row.Scan(&acc.ID, &acc.Platform, &acc.Handle, &acc.DisplayName, &acc.Active, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id string) (*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = $1`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return acc, nil
}

func (r *socialAccountRepository) ListActive(ctx context.Context) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE active = TRUE ORDER BY display_name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.SocialAccount, error) {
	accounts := make(map[string]*models.SocialAccount, len(ids))
	if len(ids) == 0 {
		return accounts, nil
	}

	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts[acc.ID] = acc
	}
	return accounts, rows.Err()
}
