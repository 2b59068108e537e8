// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dobalito/api/internal/platform/database/schema"
	"github.com/dobalito/api/internal/platform/dberr"
	"github.com/dobalito/api/pkg/slice"
)

const resourceTask = "Task"

// PostgresRepository implements [Repository] using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// selectTasks joins the display names of creator, executor and category.
var selectTasks = fmt.Sprintf(`
	SELECT t.%s, t.%s, t.%s, t.%s, t.%s, t.%s,
	       t.%s, c.%s, t.%s, e.%s, t.%s, cat.%s,
	       t.%s, t.%s
	FROM %s t
	JOIN %s c ON c.%s = t.%s
	LEFT JOIN %s e ON e.%s = t.%s
	JOIN %s cat ON cat.%s = t.%s`,
	schema.Task.ID, schema.Task.Title, schema.Task.Description, schema.Task.StartDate, schema.Task.EndDate, schema.Task.Status,
	schema.Task.CreatorID, schema.User.Name, schema.Task.ExecutorID, schema.User.Name, schema.Task.CategoryID, schema.Category.Name,
	schema.Task.CreatedAt, schema.Task.UpdatedAt,
	schema.Task.Table,
	schema.User.Table, schema.User.ID, schema.Task.CreatorID,
	schema.User.Table, schema.User.ID, schema.Task.ExecutorID,
	schema.Category.Table, schema.Category.ID, schema.Task.CategoryID,
)

func (repository *PostgresRepository) Create(context context.Context, task *Task) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s, %s, %s`,
		schema.Task.Table,
		schema.Task.Title, schema.Task.Description, schema.Task.StartDate, schema.Task.EndDate,
		schema.Task.Status, schema.Task.CreatorID, schema.Task.CategoryID,
		schema.Task.ID, schema.Task.CreatedAt, schema.Task.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		task.Title, task.Description, task.StartDate, task.EndDate,
		string(task.Status), task.CreatorID, task.CategoryID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, resourceTask)
	}
	return nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id int64) (*Task, error) {
	query := selectTasks + fmt.Sprintf(` WHERE t.%s = $1`, schema.Task.ID)

	task, err := scanTask(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceTask)
	}
	return task, nil
}

/*
List returns one page of tasks matching query, newest first, and the total
number of matches across all pages.
*/
func (repository *PostgresRepository) List(context context.Context, query Query) ([]*Task, int, error) {
	where, args := buildFilter(query)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s t %s`, schema.Task.Table, where)
	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resourceTask)
	}

	args = append(args, query.Page.Limit, query.Page.Offset())
	pageQuery := selectTasks + fmt.Sprintf(` %s ORDER BY t.%s DESC, t.%s DESC LIMIT $%d OFFSET $%d`,
		where, schema.Task.CreatedAt, schema.Task.ID, len(args)-1, len(args))

	rows, err := repository.db.Query(context, pageQuery, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resourceTask)
	}
	defer rows.Close()

	tasks := make([]*Task, 0, query.Page.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, resourceTask)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, resourceTask)
	}

	return tasks, total, nil
}

func buildFilter(query Query) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	add := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if query.CreatorID != 0 {
		add("t."+schema.Task.CreatorID+" = $%d", query.CreatorID)
	}
	if query.ExecutorID != 0 {
		add("t."+schema.Task.ExecutorID+" = $%d", query.ExecutorID)
	}
	if query.CategoryID != 0 {
		add("t."+schema.Task.CategoryID+" = $%d", query.CategoryID)
	}
	if len(query.Statuses) > 0 {
		statuses := slice.Map(query.Statuses, func(status Status) string { return string(status) })
		add("t."+schema.Task.Status+" = ANY($%d)", statuses)
	}
	if query.Unassigned {
		conditions = append(conditions, "t."+schema.Task.ExecutorID+" IS NULL")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (repository *PostgresRepository) Update(context context.Context, task *Task) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		schema.Task.Table,
		schema.Task.Title, schema.Task.Description, schema.Task.StartDate, schema.Task.EndDate,
		schema.Task.CategoryID, schema.Task.UpdatedAt,
		schema.Task.ID,
		schema.Task.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		task.ID, task.Title, task.Description, task.StartDate, task.EndDate, task.CategoryID,
	).Scan(&task.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, resourceTask)
	}
	return nil
}

// Assign sets the executor only while the task is open, unassigned and not
// owned by executorID.
func (repository *PostgresRepository) Assign(context context.Context, id, executorID int64) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = NOW()
		WHERE %s = $1 AND %s = $4 AND %s IS NULL AND %s <> $2`,
		schema.Task.Table,
		schema.Task.ExecutorID, schema.Task.Status, schema.Task.UpdatedAt,
		schema.Task.ID, schema.Task.Status, schema.Task.ExecutorID, schema.Task.CreatorID,
	)

	tag, err := repository.db.Exec(context, query, id, executorID, string(StatusInProgress), string(StatusOpen))
	if err != nil {
		return false, dberr.Wrap(err, resourceTask)
	}
	return tag.RowsAffected() == 1, nil
}

func (repository *PostgresRepository) ChangeStatus(context context.Context, id int64, from, to Status, releaseExecutor bool) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3,
		    %s = CASE WHEN $4 THEN NULL ELSE %s END,
		    %s = NOW()
		WHERE %s = $1 AND %s = $2`,
		schema.Task.Table,
		schema.Task.Status,
		schema.Task.ExecutorID, schema.Task.ExecutorID,
		schema.Task.UpdatedAt,
		schema.Task.ID, schema.Task.Status,
	)

	tag, err := repository.db.Exec(context, query, id, string(from), string(to), releaseExecutor)
	if err != nil {
		return false, dberr.Wrap(err, resourceTask)
	}
	return tag.RowsAffected() == 1, nil
}

func (repository *PostgresRepository) Delete(context context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Task.Table, schema.Task.ID)

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, resourceTask)
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceTask)
	}
	return nil
}

func (repository *PostgresRepository) CountByCreator(context context.Context, creatorID int64) (map[Status]int, error) {
	return repository.countByStatus(context, schema.Task.CreatorID, creatorID)
}

func (repository *PostgresRepository) CountByExecutor(context context.Context, executorID int64) (map[Status]int, error) {
	return repository.countByStatus(context, schema.Task.ExecutorID, executorID)
}

func (repository *PostgresRepository) countByStatus(context context.Context, column string, userID int64) (map[Status]int, error) {
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM %s WHERE %s = $1 GROUP BY %s`,
		schema.Task.Status, schema.Task.Table, column, schema.Task.Status)

	rows, err := repository.db.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, resourceTask)
	}
	defer rows.Close()

	counts := make(map[Status]int, len(AllStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, dberr.Wrap(err, resourceTask)
		}
		counts[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceTask)
	}
	return counts, nil
}

func (repository *PostgresRepository) CountOpenUnassigned(context context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s IS NULL`,
		schema.Task.Table, schema.Task.Status, schema.Task.ExecutorID)

	var count int
	if err := repository.db.QueryRow(context, query, string(StatusOpen)).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, resourceTask)
	}
	return count, nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		task   Task
		status string
	)
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.StartDate, &task.EndDate, &status,
		&task.CreatorID, &task.CreatorName, &task.ExecutorID, &task.ExecutorName, &task.CategoryID, &task.CategoryName,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = Status(status)
	return &task, nil
}
