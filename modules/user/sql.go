package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Schema creates the users table.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = pq.ErrorCode("23505")

// SQLRepository stores users in PostgreSQL.
type SQLRepository struct {
	db *sqlx.DB
}

var _ Repository = (*SQLRepository)(nil)

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Migrate creates the schema if it does not exist.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrating users: %w", err)
	}
	return nil
}

func (r *SQLRepository) Create(ctx context.Context, u User) (User, error) {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES (:id, :email, :name, :password_hash, :created_at, :updated_at)`, u)
	if err != nil {
		return User{}, translate(err)
	}
	return u, nil
}

func (r *SQLRepository) FindAll(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := r.db.SelectContext(ctx, &users, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		ORDER BY created_at`); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1`, id)
	return u, translate(err)
}

func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)`, email)
	return u, translate(err)
}

func (r *SQLRepository) Update(ctx context.Context, u User) (User, error) {
	result, err := r.db.NamedExecContext(ctx, `
		UPDATE users
		SET email = :email, name = :name, password_hash = :password_hash, updated_at = :updated_at
		WHERE id = :id`, u)
	if err != nil {
		return User{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return User{}, ErrNotFound
	}
	return u, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}
