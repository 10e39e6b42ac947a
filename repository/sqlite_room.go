package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/wschat/database"
	"github.com/akinalp/wschat/pkg"
)

type sqliteRoomRepo struct {
	db database.TxQuerier
}

// NewSQLiteRoomRepo, RoomRepository'nin SQLite implementasyonunu oluşturur.
func NewSQLiteRoomRepo(db database.TxQuerier) RoomRepository {
	return &sqliteRoomRepo{db: db}
}

func (r *sqliteRoomRepo) Create(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO rooms (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: room already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (r *sqliteRoomRepo) Exists(ctx context.Context, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rooms WHERE name = ?`, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check room existence: %w", err)
	}
	return count > 0, nil
}

func (r *sqliteRoomRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM rooms ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan room row: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room rows: %w", err)
	}

	return names, nil
}
