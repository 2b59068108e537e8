// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dobalito/api/internal/platform/database/schema"
	"github.com/dobalito/api/internal/platform/dberr"
	"github.com/dobalito/api/internal/platform/postgres"
)

const resourceCategory = "Category"

var categoryColumns = strings.Join(schema.Category.Columns(), ", ")

// PostgresRepository implements [Repository] using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) List(context context.Context, filter Filter) ([]*Category, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.ActiveOnly {
		conditions = append(conditions, fmt.Sprintf("%s = TRUE", schema.Category.IsActive))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(%s ILIKE $%d OR %s ILIKE $%d)",
			schema.Category.Name, len(args), schema.Category.EnglishName, len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s ASC`,
		categoryColumns, schema.Category.Table, where, schema.Category.Name)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, resourceCategory)
	}
	defer rows.Close()

	categories := make([]*Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, dberr.Wrap(err, resourceCategory)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceCategory)
	}
	return categories, nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id int64) (*Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		categoryColumns, schema.Category.Table, schema.Category.ID)

	category, err := scanCategory(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceCategory)
	}
	return category, nil
}

func (repository *PostgresRepository) Create(context context.Context, category *Category) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s, %s, %s`,
		schema.Category.Table,
		schema.Category.Name, schema.Category.EnglishName, schema.Category.Slug,
		schema.Category.Description, schema.Category.Icon, schema.Category.Color, schema.Category.IsActive,
		schema.Category.ID, schema.Category.CreatedAt, schema.Category.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		category.Name, category.EnglishName, category.Slug,
		category.Description, category.Icon, category.Color, category.IsActive,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, resourceCategory)
	}
	return nil
}

func (repository *PostgresRepository) Update(context context.Context, category *Category) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		schema.Category.Table,
		schema.Category.Name, schema.Category.EnglishName, schema.Category.Slug,
		schema.Category.Description, schema.Category.Icon, schema.Category.Color,
		schema.Category.UpdatedAt,
		schema.Category.ID,
		schema.Category.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		category.ID, category.Name, category.EnglishName, category.Slug,
		category.Description, category.Icon, category.Color,
	).Scan(&category.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, resourceCategory)
	}
	return nil
}

func (repository *PostgresRepository) SetActive(context context.Context, id int64, active bool) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.Category.Table, schema.Category.IsActive, schema.Category.UpdatedAt, schema.Category.ID)

	tag, err := repository.db.Exec(context, query, id, active)
	if err != nil {
		return dberr.Wrap(err, resourceCategory)
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceCategory)
	}
	return nil
}

// Delete removes the category unless tasks still reference it.
func (repository *PostgresRepository) Delete(context context.Context, id int64) error {
	inUseQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		schema.Task.Table, schema.Task.CategoryID)
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Category.Table, schema.Category.ID)

	return postgres.WithTx(context, repository.db, func(tx pgx.Tx) error {
		var inUse bool
		if err := tx.QueryRow(context, inUseQuery, id).Scan(&inUse); err != nil {
			return dberr.Wrap(err, resourceCategory)
		}
		if inUse {
			return ErrCategoryInUse
		}

		tag, err := tx.Exec(context, deleteQuery, id)
		if err != nil {
			return dberr.Wrap(err, resourceCategory)
		}
		if tag.RowsAffected() == 0 {
			return dberr.Wrap(pgx.ErrNoRows, resourceCategory)
		}
		return nil
	})
}

func scanCategory(row pgx.Row) (*Category, error) {
	category := &Category{}
	err := row.Scan(
		&category.ID, &category.Name, &category.EnglishName, &category.Slug,
		&category.Description, &category.Icon, &category.Color,
		&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return category, nil
}
