package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/wschat/database"
	"github.com/akinalp/wschat/models"
	"github.com/akinalp/wschat/pkg"
)

type sqliteBanRepo struct {
	db database.TxQuerier
}

// NewSQLiteBanRepo, BanRepository'nin SQLite implementasyonunu oluşturur.
func NewSQLiteBanRepo(db database.TxQuerier) BanRepository {
	return &sqliteBanRepo{db: db}
}

func (r *sqliteBanRepo) Upsert(ctx context.Context, ban *models.Ban) error {
	query := `
		INSERT INTO bans (username, expires_at, banned_by)
		VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			expires_at = excluded.expires_at,
			banned_by  = excluded.banned_by`

	_, err := r.db.ExecContext(ctx, query,
		ban.Username, ban.ExpiresAt.UTC(), ban.BannedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ban: %w", err)
	}

	return nil
}

func (r *sqliteBanRepo) GetByUsername(ctx context.Context, username string) (*models.Ban, error) {
	query := `SELECT username, expires_at, banned_by, created_at FROM bans WHERE username = ?`

	ban := &models.Ban{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&ban.Username, &ban.ExpiresAt, &ban.BannedBy, &ban.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ban by username: %w", err)
	}

	return ban, nil
}

func (r *sqliteBanRepo) Delete(ctx context.Context, username string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bans WHERE username = ?`, username); err != nil {
		return fmt.Errorf("failed to delete ban: %w", err)
	}
	return nil
}
