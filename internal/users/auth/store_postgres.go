// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dobalito/api/internal/platform/database/schema"
	"github.com/dobalito/api/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// userColumns is the SELECT list matching [scanUser].
var userColumns = strings.Join(schema.User.Columns(), ", ")

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Phone,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
FindByID retrieves a user record by primary key.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or storage errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	return repository.findOne(context, "find_by_id", schema.User.ID, id)
}

/*
FindByPhone retrieves a user record by normalized phone number.

Parameters:
  - context: context.Context
  - phone: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or storage errors
*/
func (repository *PostgresUserRepository) FindByPhone(context context.Context, phone string) (*User, error) {
	return repository.findOne(context, "find_by_phone", schema.User.Phone, phone)
}

/*
FindByEmail retrieves a user record by email. Matching is case-insensitive.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or storage errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE LOWER(%s) = LOWER($1)`,
		userColumns, schema.User.Table, schema.User.Email,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", dberr.Wrap(err, "User"))
	}
	return user, nil
}

func (repository *PostgresUserRepository) findOne(context context.Context, action, column string, value any) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, userColumns, schema.User.Table, column)

	user, err := scanUser(repository.pool.QueryRow(context, query, value))
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_%s_failed: %w", action, dberr.Wrap(err, "User"))
	}
	return user, nil
}

/*
Create persists a new user record into the users table.

Description: The database assigns the ID and both timestamps; they are written
back into user.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate phone/email or storage errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s, %s, %s`,
		schema.User.Table,
		schema.User.Name, schema.User.Phone, schema.User.Email, schema.User.PasswordHash, schema.User.Avatar,
		schema.User.ID, schema.User.CreatedAt, schema.User.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		user.Name,
		user.Phone,
		user.Email,
		user.PasswordHash,
		user.Avatar,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_create_failed: %w", dberr.Wrap(err, "User"))
	}
	return nil
}

/*
UpdateName replaces the display name and refreshes updated_at.

Parameters:
  - context: context.Context
  - id: int64
  - name: string

Returns:
  - error: apperr.NotFound or storage errors
*/
func (repository *PostgresUserRepository) UpdateName(context context.Context, id int64, name string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.User.Table, schema.User.Name, schema.User.UpdatedAt, schema.User.ID,
	)

	tag, err := repository.pool.Exec(context, query, id, name)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_name_failed: %w", dberr.Wrap(err, "User"))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres_user_repo_update_name_failed: %w", dberr.Wrap(pgx.ErrNoRows, "User"))
	}
	return nil
}
