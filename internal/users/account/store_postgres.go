// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dobalito/api/internal/platform/database/schema"
	"github.com/dobalito/api/internal/platform/dberr"
	"github.com/dobalito/api/internal/platform/postgres"
	"github.com/dobalito/api/internal/users/auth"
)

const (
	resourceUser           = "User"
	resourceSpecialization = "Specialization"
)

// userColumns is the select list shared by every user query, prefixed with alias u.
var userColumns = fmt.Sprintf("u.%s, u.%s, u.%s, u.%s, u.%s, u.%s, u.%s, u.%s",
	schema.User.ID, schema.User.Name, schema.User.Phone, schema.User.Email,
	schema.User.PasswordHash, schema.User.Avatar, schema.User.CreatedAt, schema.User.UpdatedAt,
)

func scanUser(row pgx.Row) (*auth.User, error) {
	user := &auth.User{}
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

// # Repository Implementations

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgresAccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

/*
FindByID retrieves a user record from the users table.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *auth.User: Hydrated identity entity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id int64) (*auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s u WHERE u.%s = $1`,
		userColumns, schema.User.Table, schema.User.ID,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", dberr.Wrap(err, resourceUser))
	}

	return user, nil
}

/*
UpdateProfile syncs the name and email fields and refreshes updated_at.

Parameters:
  - context: context.Context
  - user: *auth.User

Returns:
  - error: apperr.Conflict on a duplicate email, apperr.NotFound, or storage failures
*/
func (repository *PostgresAccountRepository) UpdateProfile(context context.Context, user *auth.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		schema.User.Table,
		schema.User.Name, schema.User.Email, schema.User.UpdatedAt,
		schema.User.ID,
		schema.User.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query, user.ID, user.Name, user.Email).Scan(&user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_failed: %w", dberr.Wrap(err, resourceUser))
	}

	return nil
}

/*
UpdateAvatar stores the avatar URL of a user.

Parameters:
  - context: context.Context
  - id: int64
  - avatar: *string (nil clears the avatar)

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresAccountRepository) UpdateAvatar(context context.Context, id int64, avatar *string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.User.Table, schema.User.Avatar, schema.User.UpdatedAt, schema.User.ID,
	)

	tag, err := repository.pool.Exec(context, query, id, avatar)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_avatar_failed: %w", dberr.Wrap(err, resourceUser))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres_account_repo_update_avatar_failed: %w", dberr.Wrap(pgx.ErrNoRows, resourceUser))
	}

	return nil
}

// # Directory

/*
List pages through users, optionally limited to one specialization or a
name/email search.

Parameters:
  - context: context.Context
  - query: UserQuery

Returns:
  - []*auth.User: The requested page
  - int: Total matches across all pages
  - error: Storage failures
*/
func (repository *PostgresAccountRepository) List(context context.Context, query UserQuery) ([]*auth.User, int, error) {
	var (
		conditions []string
		args       []any
	)

	if query.CategoryID != 0 {
		args = append(args, query.CategoryID)
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s uc WHERE uc.%s = u.%s AND uc.%s = $%d)",
			schema.UserCategory.Table, schema.UserCategory.UserID, schema.User.ID,
			schema.UserCategory.CategoryID, len(args),
		))
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(u.%s ILIKE $%d OR u.%s ILIKE $%d)",
			schema.User.Name, len(args), schema.User.Email, len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s u %s`, schema.User.Table, where)
	var total int
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", dberr.Wrap(err, resourceUser))
	}

	args = append(args, query.Page.Limit, query.Page.Offset())
	pageQuery := fmt.Sprintf(`SELECT %s FROM %s u %s ORDER BY u.%s ASC, u.%s ASC LIMIT $%d OFFSET $%d`,
		userColumns, schema.User.Table, where, schema.User.Name, schema.User.ID, len(args)-1, len(args))

	rows, err := repository.pool.Query(context, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", dberr.Wrap(err, resourceUser))
	}
	defer rows.Close()

	users := make([]*auth.User, 0, query.Page.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", dberr.Wrap(err, resourceUser))
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", dberr.Wrap(err, resourceUser))
	}

	return users, total, nil
}

// Specializations joins user_categories to categories for one user.
func (repository *PostgresAccountRepository) Specializations(context context.Context, userID int64) ([]Specialization, error) {
	query := fmt.Sprintf(`
		SELECT c.%s, c.%s, c.%s, c.%s
		FROM %s uc
		JOIN %s c ON c.%s = uc.%s
		WHERE uc.%s = $1
		ORDER BY c.%s ASC`,
		schema.Category.ID, schema.Category.Name, schema.Category.EnglishName, schema.Category.Slug,
		schema.UserCategory.Table,
		schema.Category.Table, schema.Category.ID, schema.UserCategory.CategoryID,
		schema.UserCategory.UserID,
		schema.Category.Name,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_account_repo_specializations_failed: %w", dberr.Wrap(err, resourceSpecialization))
	}
	defer rows.Close()

	specializations := make([]Specialization, 0)
	for rows.Next() {
		var item Specialization
		if err := rows.Scan(&item.ID, &item.Name, &item.EnglishName, &item.Slug); err != nil {
			return nil, fmt.Errorf("postgres_account_repo_specializations_failed: %w", dberr.Wrap(err, resourceSpecialization))
		}
		specializations = append(specializations, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_account_repo_specializations_failed: %w", dberr.Wrap(err, resourceSpecialization))
	}

	return specializations, nil
}

/*
ReplaceSpecializations deletes the current set and inserts the new one in a
single transaction.

Parameters:
  - context: context.Context
  - userID: int64
  - categoryIDs: []int64

Returns:
  - error: apperr.Unprocessable for a missing user or category, or storage failures
*/
func (repository *PostgresAccountRepository) ReplaceSpecializations(context context.Context, userID int64, categoryIDs []int64) error {
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.UserCategory.Table, schema.UserCategory.UserID)

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s)
		SELECT $1, UNNEST($2::BIGINT[])
		ON CONFLICT DO NOTHING`,
		schema.UserCategory.Table, schema.UserCategory.UserID, schema.UserCategory.CategoryID,
	)

	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(context, deleteQuery, userID); err != nil {
			return err
		}
		if len(categoryIDs) == 0 {
			return nil
		}
		_, err := tx.Exec(context, insertQuery, userID, categoryIDs)
		return err
	})
	if err != nil {
		return fmt.Errorf("postgres_account_repo_replace_specializations_failed: %w", dberr.Wrap(err, resourceSpecialization))
	}

	return nil
}
