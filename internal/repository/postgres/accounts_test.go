package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"

	"github.com/authline/authline/internal/core/domain"
	"github.com/authline/authline/internal/repository"
)

func newMockRepo(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create pgxmock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	return NewAccountRepository(mock), mock
}

func accountRows(account *domain.Account) *pgxmock.Rows {
	return pgxmock.NewRows(accountColumns).AddRow(
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
	)
}

func sampleAccount(now time.Time) *domain.Account {
	return &domain.Account{
		ID:            "acc-1",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		MobileNumber:  "1234567890",
		PasswordHash:  "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestAccountRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	account := sampleAccount(now)

	mock.ExpectExec("INSERT INTO auth\\.accounts").
		WithArgs(
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
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepositoryGetByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	account := sampleAccount(now)

	mock.ExpectQuery("SELECT .+ FROM auth\\.accounts WHERE email = \\$1").
		WithArgs(account.Email).
		WillReturnRows(accountRows(account))

	got, err := repo.GetByEmail(context.Background(), account.Email)
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if got.ID != account.ID || got.Email != account.Email {
		t.Fatalf("got account %+v, want %+v", got, account)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepositoryGetByEmailNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT .+ FROM auth\\.accounts WHERE email = \\$1").
		WithArgs("missing@example.com").
		WillReturnRows(pgxmock.NewRows(accountColumns))

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAccountRepositoryRecordFailureLocks(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	locked := sampleAccount(now)
	locked.FailedAttempts = 3
	locked.LastFailedAt = &now
	locked.Locked = true
	until := now.Add(3 * time.Hour)
	locked.LockedUntil = &until

	mock.ExpectQuery("UPDATE auth\\.accounts SET failed_attempts = failed_attempts \\+ 1").
		WithArgs(now, 3, 3, until, now, locked.ID).
		WillReturnRows(accountRows(locked))

	got, err := repo.RecordFailure(context.Background(), locked.ID, now, 3, 3*time.Hour)
	if err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	if got.FailedAttempts != 3 || !got.Locked {
		t.Fatalf("got attempts=%d locked=%v, want 3/true", got.FailedAttempts, got.Locked)
	}
	if got.LockedUntil == nil || !got.LockedUntil.Equal(until) {
		t.Fatalf("LockedUntil = %v, want %s", got.LockedUntil, until)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepositoryResetFailures(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE auth\\.accounts SET failed_attempts = \\$1").
		WithArgs(0, nil, false, nil, "acc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.ResetFailures(context.Background(), "acc-1"); err != nil {
		t.Fatalf("ResetFailures returned error: %v", err)
	}
}

func TestAccountRepositoryResetFailuresNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE auth\\.accounts SET failed_attempts = \\$1").
		WithArgs(0, nil, false, nil, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.ResetFailures(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAccountRepositoryClearExpiredLock(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE auth\\.accounts SET failed_attempts = \\$1").
		WithArgs(0, nil, false, nil, "acc-1", true, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.ClearExpiredLock(context.Background(), "acc-1", now); err != nil {
		t.Fatalf("ClearExpiredLock returned error: %v", err)
	}
}

func TestAccountRepositorySweepFailedAttempts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE auth\\.accounts SET failed_attempts = \\$1").
		WithArgs(0, nil, 0, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 7))

	swept, err := repo.SweepFailedAttempts(context.Background())
	if err != nil {
		t.Fatalf("SweepFailedAttempts returned error: %v", err)
	}
	if swept != 7 {
		t.Fatalf("swept = %d, want 7", swept)
	}
}

func TestAccountRepositoryUpdatePassword(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE auth\\.accounts SET password_hash = \\$1").
		WithArgs("new-hash", now, "acc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdatePassword(context.Background(), "acc-1", "new-hash", now); err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}
}
