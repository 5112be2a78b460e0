package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/authline/authline/internal/core/domain"
	"github.com/authline/authline/internal/repository"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	swept    int64
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *account
	return &clone, nil
}

// GetByEmail compares exactly, like the Postgres adapter does. Callers are
// expected to normalize casing before the lookup.
func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			clone := *account
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeAccountRepo) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = hash
	account.UpdatedAt = changedAt
	return nil
}

func (r *fakeAccountRepo) RecordFailure(_ context.Context, id string, at time.Time, threshold int, lockFor time.Duration) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	account.FailedAttempts++
	account.LastFailedAt = &at
	if account.FailedAttempts >= threshold {
		account.Locked = true
		until := at.Add(lockFor)
		account.LockedUntil = &until
	}
	account.UpdatedAt = at

	clone := *account
	return &clone, nil
}

func (r *fakeAccountRepo) ResetFailures(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.ResetFailures()
	return nil
}

func (r *fakeAccountRepo) ClearExpiredLock(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil
	}
	if account.Locked && account.LockedUntil != nil && !account.LockedUntil.After(now) {
		account.ResetFailures()
	}
	return nil
}

func (r *fakeAccountRepo) SweepFailedAttempts(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for _, account := range r.accounts {
		if account.FailedAttempts > 0 && !account.Locked {
			account.FailedAttempts = 0
			account.LastFailedAt = nil
			swept++
		}
	}
	r.swept += swept
	return swept, nil
}

type fakeOTPStore struct {
	mu      sync.Mutex
	records map[string]*domain.OTPRecord
	now     func() time.Time
}

func newFakeOTPStore(now func() time.Time) *fakeOTPStore {
	return &fakeOTPStore{
		records: make(map[string]*domain.OTPRecord),
		now:     now,
	}
}

func (s *fakeOTPStore) Store(_ context.Context, email, code string, ttl time.Duration) (*domain.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	record := &domain.OTPRecord{
		Email:     key,
		Code:      code,
		CreatedAt: s.now(),
		ExpiresAt: s.now().Add(ttl),
	}
	s.records[key] = record
	clone := *record
	return &clone, nil
}

func (s *fakeOTPStore) Fetch(_ context.Context, email string) (*domain.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *fakeOTPStore) MarkUsed(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[strings.ToLower(email)]
	if !ok {
		return repository.ErrNotFound
	}
	record.Used = true
	return nil
}

func (s *fakeOTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, strings.ToLower(email))
	return nil
}

type sentMail struct {
	email     string
	firstName string
	code      string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendOTP(_ context.Context, email, firstName, code string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{email: email, firstName: firstName, code: code})
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, email, firstName, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{email: email, firstName: firstName})
	return nil
}

type fakePublisher struct {
	mu         sync.Mutex
	registered []domain.AccountRegisteredEvent
	locked     []domain.AccountLockedEvent
	changed    []domain.PasswordChangedEvent
}

func (p *fakePublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *fakePublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = append(p.locked, event)
	return nil
}

func (p *fakePublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, event)
	return nil
}
