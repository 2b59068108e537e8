// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dobalito/api/internal/platform/database/schema"
)

// # Queries

var (
	codeTable = schema.PhoneVerificationCode

	codeSelect = fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s FROM %s`,
		codeTable.ID, codeTable.Phone, codeTable.Code, codeTable.CreatedAt,
		codeTable.ExpiresAt, codeTable.IsUsed, codeTable.Attempts, codeTable.Table)

	newestFirst = fmt.Sprintf(`ORDER BY %s DESC, %s DESC`, codeTable.CreatedAt, codeTable.ID)

	insertCodeQuery = fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`,
		codeTable.Table, codeTable.Phone, codeTable.Code, codeTable.CreatedAt,
		codeTable.ExpiresAt, codeTable.IsUsed, codeTable.Attempts, codeTable.ID)

	updateCodeQuery = fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7
		WHERE %s = $1`,
		codeTable.Table, codeTable.Phone, codeTable.Code, codeTable.CreatedAt,
		codeTable.ExpiresAt, codeTable.IsUsed, codeTable.Attempts, codeTable.ID)

	findActiveQuery = fmt.Sprintf(`%s
		WHERE %s = $1 AND %s = FALSE AND %s > $2 AND %s < $3
		%s LIMIT 1`,
		codeSelect, codeTable.Phone, codeTable.IsUsed, codeTable.ExpiresAt, codeTable.Attempts, newestFirst)

	findByCodeQuery = fmt.Sprintf(`%s
		WHERE %s = $1 AND %s = $2 AND %s = FALSE AND %s > $3
		%s LIMIT 1`,
		codeSelect, codeTable.Phone, codeTable.Code, codeTable.IsUsed, codeTable.ExpiresAt, newestFirst)

	findAllQuery = fmt.Sprintf(`%s WHERE %s = $1 %s`, codeSelect, codeTable.Phone, newestFirst)

	countSinceQuery = fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s > $2`,
		codeTable.Table, codeTable.Phone, codeTable.CreatedAt)

	incrementAttemptsQuery = fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE %s = $1`,
		codeTable.Table, codeTable.Attempts, codeTable.Attempts, codeTable.ID)

	// Single-statement compare-and-swap: only one verifier can flip the row.
	markUsedQuery = fmt.Sprintf(`
		UPDATE %s SET %s = TRUE
		WHERE %s = $1 AND %s = FALSE AND %s < $2 AND %s > $3`,
		codeTable.Table, codeTable.IsUsed,
		codeTable.ID, codeTable.IsUsed, codeTable.Attempts, codeTable.ExpiresAt)

	invalidateUnusedQuery = fmt.Sprintf(`UPDATE %s SET %s = TRUE WHERE %s = $1 AND %s = FALSE`,
		codeTable.Table, codeTable.IsUsed, codeTable.Phone, codeTable.IsUsed)

	deleteExpiredQuery = fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`, codeTable.Table, codeTable.ExpiresAt)
)

// PostgresStore implements [CodeStore] using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed code store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Save persists a verification code.

Description: Inserts when the ID is zero and returns the generated key;
otherwise overwrites the mutable columns of the existing row.
*/
func (repository *PostgresStore) Save(context context.Context, code *VerificationCode) (*VerificationCode, error) {
	stored := *code

	if stored.ID == 0 {
		err := repository.pool.QueryRow(context, insertCodeQuery,
			stored.Phone, stored.Code, stored.CreatedAt, stored.ExpiresAt, stored.Used, stored.Attempts,
		).Scan(&stored.ID)
		if err != nil {
			return nil, storageError("insert", err)
		}
		return &stored, nil
	}

	tag, err := repository.pool.Exec(context, updateCodeQuery,
		stored.ID, stored.Phone, stored.Code, stored.CreatedAt, stored.ExpiresAt, stored.Used, stored.Attempts,
	)
	if err != nil {
		return nil, storageError("update", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrCodeNotFound
	}

	return &stored, nil
}

func (repository *PostgresStore) FindActiveByPhone(context context.Context, phone string, now time.Time) (*VerificationCode, error) {
	return repository.queryOne(context, "find_active", findActiveQuery, phone, now, MaxAttempts)
}

func (repository *PostgresStore) FindByPhoneAndCode(context context.Context, phone, code string, now time.Time) (*VerificationCode, error) {
	return repository.queryOne(context, "find_by_code", findByCodeQuery, phone, code, now)
}

func (repository *PostgresStore) FindAllByPhone(context context.Context, phone string) ([]*VerificationCode, error) {
	rows, err := repository.pool.Query(context, findAllQuery, phone)
	if err != nil {
		return nil, storageError("find_all", err)
	}
	defer rows.Close()

	codes := make([]*VerificationCode, 0)
	for rows.Next() {
		code, err := scanCode(rows)
		if err != nil {
			return nil, storageError("scan", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("find_all", err)
	}

	return codes, nil
}

func (repository *PostgresStore) CountIssuedSince(context context.Context, phone string, since time.Time) (int, error) {
	var count int
	if err := repository.pool.QueryRow(context, countSinceQuery, phone, since).Scan(&count); err != nil {
		return 0, storageError("count_since", err)
	}
	return count, nil
}

func (repository *PostgresStore) IncrementAttempts(context context.Context, id int64) error {
	tag, err := repository.pool.Exec(context, incrementAttemptsQuery, id)
	if err != nil {
		return storageError("increment_attempts", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (repository *PostgresStore) MarkUsed(context context.Context, id int64, now time.Time) (bool, error) {
	tag, err := repository.pool.Exec(context, markUsedQuery, id, MaxAttempts, now)
	if err != nil {
		return false, storageError("mark_used", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (repository *PostgresStore) InvalidateUnused(context context.Context, phone string) (int64, error) {
	tag, err := repository.pool.Exec(context, invalidateUnusedQuery, phone)
	if err != nil {
		return 0, storageError("invalidate_unused", err)
	}
	return tag.RowsAffected(), nil
}

func (repository *PostgresStore) DeleteExpired(context context.Context, now time.Time) (int64, error) {
	tag, err := repository.pool.Exec(context, deleteExpiredQuery, now)
	if err != nil {
		return 0, storageError("delete_expired", err)
	}
	return tag.RowsAffected(), nil
}

// # Helpers

func (repository *PostgresStore) queryOne(context context.Context, action, query string, args ...any) (*VerificationCode, error) {
	code, err := scanCode(repository.pool.QueryRow(context, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, storageError(action, err)
	}
	return code, nil
}

func scanCode(row pgx.Row) (*VerificationCode, error) {
	code := &VerificationCode{}
	err := row.Scan(&code.ID, &code.Phone, &code.Code, &code.CreatedAt, &code.ExpiresAt, &code.Used, &code.Attempts)
	if err != nil {
		return nil, err
	}
	return code, nil
}

func storageError(action string, err error) error {
	return fmt.Errorf("phone_store_%s_failed: %w: %w", action, ErrStorage, err)
}
