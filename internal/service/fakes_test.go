package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/repository"
)

// fakeOTPRepo is an in-memory OTPRepository mirroring the conditional-update
// semantics of the Postgres implementation.
type fakeOTPRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*domain.OneTimeCode
	// afterGet, when set, runs after GetActive returns a row. It simulates a
	// concurrent verification consuming the row between read and update.
	afterGet func(code *domain.OneTimeCode)
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{rows: map[string]*domain.OneTimeCode{}}
}

func (f *fakeOTPRepo) Create(_ context.Context, code *domain.OneTimeCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	code.ID = fmt.Sprintf("otp-%d", f.seq)
	code.CreatedAt = time.Now()
	clone := *code
	f.rows[code.ID] = &clone
	return nil
}

func (f *fakeOTPRepo) GetActive(_ context.Context, phone string) (*domain.OneTimeCode, error) {
	f.mu.Lock()
	var newest *domain.OneTimeCode
	for _, row := range f.rows {
		if row.Phone != phone || row.Used {
			continue
		}
		if newest == nil || row.CreatedAt.After(newest.CreatedAt) {
			newest = row
		}
	}
	if newest == nil {
		f.mu.Unlock()
		return nil, pgx.ErrNoRows
	}
	clone := *newest
	f.mu.Unlock()
	if f.afterGet != nil {
		f.afterGet(&clone)
	}
	return &clone, nil
}

func (f *fakeOTPRepo) IncrementAttempts(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.Used {
		return 0, pgx.ErrNoRows
	}
	row.Attempts++
	return row.Attempts, nil
}

func (f *fakeOTPRepo) MarkUsed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.Used {
		return pgx.ErrNoRows
	}
	row.Used = true
	return nil
}

func (f *fakeOTPRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeOTPRepo) DeleteStale(_ context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		if row.Phone == phone && (!row.Used || time.Now().After(row.ExpiresAt)) {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeOTPRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, row := range f.rows {
		if row.Used || time.Now().After(row.ExpiresAt) {
			delete(f.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

// expireActive backdates the active row for a phone, for expiry tests.
func (f *fakeOTPRepo) expireActive(phone string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Phone == phone && !row.Used {
			row.ExpiresAt = time.Now().Add(-time.Minute)
		}
	}
}

func (f *fakeOTPRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakeAccountRepo is an in-memory AccountRepository.
type fakeAccountRepo struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]*domain.Account{}}
}

func (f *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	account.ID = fmt.Sprintf("acc-%d", f.seq)
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	clone := *account
	f.accounts[account.ID] = &clone
	return nil
}

func (f *fakeAccountRepo) Update(_ context.Context, account *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[account.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *account
	f.accounts[account.ID] = &clone
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) GetByPhone(_ context.Context, phone string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Phone != nil && *account.Phone == phone {
			clone := *account
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Email != nil && strings.EqualFold(*account.Email, email) {
			clone := *account
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAccountRepo) UpsertPlaceholder(ctx context.Context, phone string) (*domain.Account, error) {
	if existing, err := f.GetByPhone(ctx, phone); err == nil {
		return existing, nil
	}
	account := &domain.Account{
		Phone:      &phone,
		Role:       domain.RoleCustomer,
		IsVerified: false,
	}
	if err := f.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (f *fakeAccountRepo) MarkVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	account.IsVerified = true
	return nil
}

// fakeSMS records dispatched codes.
type fakeSMS struct {
	mu    sync.Mutex
	codes []string
	fail  bool
}

func (f *fakeSMS) SendCode(_ context.Context, _ string, code string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("gateway down")
	}
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeSMS) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return ""
	}
	return f.codes[len(f.codes)-1]
}

// fakeComplaintRepo is an in-memory ComplaintRepository with the same
// optimistic-check and resolved_at semantics as the Postgres implementation.
type fakeComplaintRepo struct {
	mu         sync.Mutex
	seq        int
	complaints map[string]*domain.Complaint
	histories  map[string][]domain.StatusEntry
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{
		complaints: map[string]*domain.Complaint{},
		histories:  map[string][]domain.StatusEntry{},
	}
}

func (f *fakeComplaintRepo) Create(_ context.Context, complaint *domain.Complaint, first domain.StatusEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.complaints {
		if existing.PublicID == complaint.PublicID {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	f.seq++
	complaint.ID = fmt.Sprintf("cmp-%d", f.seq)
	complaint.CreatedAt = time.Now()
	complaint.UpdatedAt = complaint.CreatedAt
	first.CreatedAt = complaint.CreatedAt
	complaint.History = []domain.StatusEntry{first}

	clone := *complaint
	f.complaints[complaint.ID] = &clone
	f.histories[complaint.ID] = []domain.StatusEntry{first}
	return nil
}

func (f *fakeComplaintRepo) GetByPublicID(_ context.Context, publicID string) (*domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, complaint := range f.complaints {
		if complaint.PublicID == publicID {
			clone := *complaint
			clone.History = append([]domain.StatusEntry{}, f.histories[id]...)
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeComplaintRepo) Transition(_ context.Context, id string, expected domain.ComplaintStatus, entry domain.StatusEntry) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	complaint, ok := f.complaints[id]
	if !ok || complaint.Status != expected {
		return time.Time{}, repository.ErrConcurrentUpdate
	}
	now := time.Now()
	complaint.Status = entry.Status
	complaint.UpdatedAt = now
	if entry.Status == domain.ComplaintStatusResolved && complaint.ResolvedAt == nil {
		resolvedAt := now
		complaint.ResolvedAt = &resolvedAt
	}
	entry.CreatedAt = now
	f.histories[id] = append(f.histories[id], entry)
	return now, nil
}

func (f *fakeComplaintRepo) ListHistory(_ context.Context, complaintID string) ([]domain.StatusEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.StatusEntry{}, f.histories[complaintID]...), nil
}

func (f *fakeComplaintRepo) ListWithFilter(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Complaint
	for _, complaint := range f.complaints {
		if filter.AccountID != nil {
			if complaint.AccountID == nil || *complaint.AccountID != *filter.AccountID {
				continue
			}
		}
		result = append(result, *complaint)
	}
	return result, nil
}
