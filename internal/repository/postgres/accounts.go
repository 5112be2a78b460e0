// Package postgres implements the account repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/authline/authline/internal/core/domain"
	"github.com/authline/authline/internal/repository"
)

const accountsTable = "auth.accounts"

var accountColumns = []string{
	"id",
	"first_name",
	"last_name",
	"email",
	"mobile_number",
	"password_hash",
	"email_verified",
	"failed_attempts",
	"last_failed_at",
	"locked",
	"locked_until",
	"created_at",
	"updated_at",
}

// pgExecutor is the subset of pgxpool.Pool used by the repository.
// Declared locally so tests can substitute a pgxmock connection.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository persists accounts and their lockout state.
type AccountRepository struct {
	db pgExecutor
	sb sq.StatementBuilderType
}

// NewAccountRepository builds a repository over the given executor.
func NewAccountRepository(db pgExecutor) *AccountRepository {
	return &AccountRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create inserts a new account row.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query, args, err := r.sb.Insert(accountsTable).
		Columns(accountColumns...).
		Values(
			account.ID,
			account.FirstName,
			account.LastName,
			account.Email,
			account.MobileNumber,
			account.PasswordHash,
			account.EmailVerified,
			account.FailedAttempts,
			account.LastFailedAt,
			account.Locked,
			account.LockedUntil,
			account.CreatedAt,
			account.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID fetches an account by its identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query, args, err := r.sb.Select(accountColumns...).
		From(accountsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account query: %w", err)
	}

	return r.scanAccount(r.db.QueryRow(ctx, query, args...))
}

// GetByEmail fetches an account by email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query, args, err := r.sb.Select(accountColumns...).
		From(accountsTable).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account query: %w", err)
	}

	return r.scanAccount(r.db.QueryRow(ctx, query, args...))
}

// Update persists profile fields and the verification flag.
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	query, args, err := r.sb.Update(accountsTable).
		Set("first_name", account.FirstName).
		Set("last_name", account.LastName).
		Set("mobile_number", account.MobileNumber).
		Set("password_hash", account.PasswordHash).
		Set("email_verified", account.EmailVerified).
		Set("updated_at", account.UpdatedAt).
		Where(sq.Eq{"id": account.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update account query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored credential hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	query, args, err := r.sb.Update(accountsTable).
		Set("password_hash", passwordHash).
		Set("updated_at", changedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RecordFailure atomically increments the failure counter and applies the lock
// in a single statement when the counter reaches the threshold. Concurrent
// failed attempts cannot lose increments because the counter arithmetic runs
// inside the UPDATE. The returned account reflects the post-increment state.
func (r *AccountRepository) RecordFailure(ctx context.Context, id string, at time.Time, threshold int, lockFor time.Duration) (*domain.Account, error) {
	query, args, err := r.sb.Update(accountsTable).
		Set("failed_attempts", sq.Expr("failed_attempts + 1")).
		Set("last_failed_at", at).
		Set("locked", sq.Expr("(failed_attempts + 1 >= ?)", threshold)).
		Set("locked_until", sq.Expr("CASE WHEN failed_attempts + 1 >= ? THEN ?::timestamptz ELSE locked_until END", threshold, at.Add(lockFor))).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build record failure query: %w", err)
	}

	return r.scanAccount(r.db.QueryRow(ctx, query, args...))
}

// ResetFailures clears the failure counter and lock state after a successful login.
func (r *AccountRepository) ResetFailures(ctx context.Context, id string) error {
	query, args, err := r.sb.Update(accountsTable).
		Set("failed_attempts", 0).
		Set("last_failed_at", nil).
		Set("locked", false).
		Set("locked_until", nil).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset failures query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("reset failures: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ClearExpiredLock lifts the lock and zeroes the counter, but only when the
// stored lock deadline has actually passed. A concurrent login that re-locked
// the account with a later deadline is left untouched.
func (r *AccountRepository) ClearExpiredLock(ctx context.Context, id string, now time.Time) error {
	query, args, err := r.sb.Update(accountsTable).
		Set("failed_attempts", 0).
		Set("last_failed_at", nil).
		Set("locked", false).
		Set("locked_until", nil).
		Where(sq.Eq{"id": id, "locked": true}).
		Where(sq.LtOrEq{"locked_until": now}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear expired lock query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear expired lock: %w", err)
	}

	return nil
}

// SweepFailedAttempts zeroes failure counters across unlocked accounts.
// Locked rows are skipped so the sweep cannot shorten an active lock.
func (r *AccountRepository) SweepFailedAttempts(ctx context.Context) (int64, error) {
	query, args, err := r.sb.Update(accountsTable).
		Set("failed_attempts", 0).
		Set("last_failed_at", nil).
		Where(sq.Gt{"failed_attempts": 0}).
		Where(sq.Eq{"locked": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sweep query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep failed attempts: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.MobileNumber,
		&account.PasswordHash,
		&account.EmailVerified,
		&account.FailedAttempts,
		&account.LastFailedAt,
		&account.Locked,
		&account.LockedUntil,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &account, nil
}

func columnList() string {
	list := accountColumns[0]
	for _, col := range accountColumns[1:] {
		list += ", " + col
	}
	return list
}
