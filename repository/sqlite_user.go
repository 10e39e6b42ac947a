package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/wschat/database"
	"github.com/akinalp/wschat/models"
	"github.com/akinalp/wschat/pkg"
)

// sqliteUserRepo, UserRepository interface'inin SQLite implementasyonu.
type sqliteUserRepo struct {
	db database.TxQuerier
}

// NewSQLiteUserRepo, constructor. TxQuerier aldığı için hem *sql.DB hem
// transaction içindeki *sql.Tx ile kullanılabilir (bkz. database.WithTx).
func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, is_deleted)
		VALUES (?, ?, 0)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username,
		user.PasswordHash,
	).Scan(&user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT username, password_hash, is_deleted, created_at
		FROM users WHERE username = ?`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.Username, &user.PasswordHash, &user.IsDeleted, &user.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

func (r *sqliteUserRepo) MarkDeleted(ctx context.Context, username string) error {
	// Upsert: hiç kayıt olmamış bir isim bile kalıcı olarak yasaklanabilir.
	query := `
		INSERT INTO users (username, password_hash, is_deleted)
		VALUES (?, '', 1)
		ON CONFLICT(username) DO UPDATE SET password_hash = '', is_deleted = 1`

	if _, err := r.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("failed to mark user deleted: %w", err)
	}
	return nil
}

// isUniqueViolation, SQLite UNIQUE constraint hatasını tanır.
// modernc.org/sqlite hata tipini export etmez; mesaj kontrolü yeterli.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
