package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/db"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/jackc/pgx/v5"
)

func (s *PostgresStore) CreateUser(ctx context.Context, u model.User) error {
	const q = `
		INSERT INTO users (
			id,
			email,
			username,
			password,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5);
	`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	_, err := s.db.Pool.Exec(ctx, q, u.ID, u.Email, u.Username, u.Password, u.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("create user %s: %w", u.Username, ErrDuplicate)
	}
	return err
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	const q = `
		SELECT
			u.id,
			u.email,
			u.username,
			u.password,
			u.created_at
		FROM users u
		WHERE u.id = $1
		LIMIT 1;
	`
	return s.getUser(ctx, q, id)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	const q = `
		SELECT
			u.id,
			u.email,
			u.username,
			u.password,
			u.created_at
		FROM users u
		WHERE u.username = $1
		LIMIT 1;
	`
	return s.getUser(ctx, q, username)
}

func (s *PostgresStore) getUser(ctx context.Context, q string, arg any) (model.User, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var u model.User
	err := s.db.Pool.QueryRow(ctx, q, arg).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Password,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("get user %v: %w", arg, ErrNotFound)
	}
	return u, err
}
