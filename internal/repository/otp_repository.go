package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// OTPRepository manages one-time-code persistence. Mutations that race per
// phone (attempt increments, mark-used) are single-row conditional updates so
// concurrent verifications cannot both succeed or lose increments.
type OTPRepository interface {
	Create(ctx context.Context, code *domain.OneTimeCode) error
	// GetActive returns the newest unused code for the phone, used rows excluded.
	GetActive(ctx context.Context, phone string) (*domain.OneTimeCode, error)
	// IncrementAttempts atomically bumps the counter and returns the new value.
	IncrementAttempts(ctx context.Context, id string) (int, error)
	// MarkUsed flips the used flag; returns pgx.ErrNoRows when the row was
	// already consumed by a concurrent verification.
	MarkUsed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// DeleteStale removes unused or expired rows for a phone before a new issue.
	DeleteStale(ctx context.Context, phone string) error
	// DeleteExpired is the periodic sweep: drops expired and used rows globally.
	DeleteExpired(ctx context.Context) (int64, error)
}

type otpRepository struct {
	pool *pgxpool.Pool
}

// NewOTPRepository constructs repository.
func NewOTPRepository(pool *pgxpool.Pool) OTPRepository {
	return &otpRepository{pool: pool}
}

func (r *otpRepository) Create(ctx context.Context, code *domain.OneTimeCode) error {
	const query = `
        INSERT INTO one_time_codes (phone, code, purpose, attempts, used, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		code.Phone,
		code.Code,
		code.Purpose,
		code.Attempts,
		code.Used,
		code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt)
}

func (r *otpRepository) GetActive(ctx context.Context, phone string) (*domain.OneTimeCode, error) {
	const query = `
        SELECT id, phone, code, purpose, attempts, used, expires_at, created_at
        FROM one_time_codes
        WHERE phone=$1 AND used=false
        ORDER BY created_at DESC
        LIMIT 1`
	var code domain.OneTimeCode
	if err := r.pool.QueryRow(ctx, query, phone).Scan(
		&code.ID,
		&code.Phone,
		&code.Code,
		&code.Purpose,
		&code.Attempts,
		&code.Used,
		&code.ExpiresAt,
		&code.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	const query = `
        UPDATE one_time_codes SET attempts=attempts+1
        WHERE id=$1 AND used=false
        RETURNING attempts`
	var attempts int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *otpRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE one_time_codes SET used=true
        WHERE id=$1 AND used=false`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *otpRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM one_time_codes WHERE id=$1`, id)
	return err
}

func (r *otpRepository) DeleteStale(ctx context.Context, phone string) error {
	const query = `
        DELETE FROM one_time_codes
        WHERE phone=$1 AND (used=false OR expires_at < NOW())`
	_, err := r.pool.Exec(ctx, query, phone)
	return err
}

func (r *otpRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `
        DELETE FROM one_time_codes
        WHERE expires_at < NOW() OR used=true`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
