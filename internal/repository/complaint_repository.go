package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// ErrConcurrentUpdate is returned when the optimistic status check fails,
// meaning another transition committed between read and write.
var ErrConcurrentUpdate = errors.New("complaint was modified concurrently")

// ComplaintFilter captures admin search parameters.
type ComplaintFilter struct {
	AccountID   *string
	Statuses    []domain.ComplaintStatus
	Priorities  []domain.ComplaintPriority
	Category    *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	// Create inserts the complaint and its first history entry atomically.
	Create(ctx context.Context, complaint *domain.Complaint, first domain.StatusEntry) error
	GetByPublicID(ctx context.Context, publicID string) (*domain.Complaint, error)
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	// Transition updates status and appends the history entry in one
	// transaction, guarded by an optimistic check on the expected status.
	// resolved_at is set on first entry into resolved and never cleared.
	Transition(ctx context.Context, id string, expected domain.ComplaintStatus, entry domain.StatusEntry) (time.Time, error)
	ListHistory(ctx context.Context, complaintID string) ([]domain.StatusEntry, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `id, public_id, title, category, department, description, priority, status,
               reporter_mode, contact, account_id, address, latitude, longitude,
               attachments, identity_snapshot, created_at, updated_at, resolved_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint, first domain.StatusEntry) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertComplaint = `
        INSERT INTO complaints (public_id, title, category, department, description, priority, status,
                                reporter_mode, contact, account_id, address, latitude, longitude,
                                attachments, identity_snapshot)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertComplaint,
		complaint.PublicID,
		complaint.Title,
		complaint.Category,
		complaint.Department,
		complaint.Description,
		complaint.Priority,
		complaint.Status,
		complaint.Reporter,
		complaint.Contact,
		complaint.AccountID,
		complaint.Location.Address,
		complaint.Location.Latitude,
		complaint.Location.Longitude,
		complaint.Attachments,
		complaint.Identity,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt); err != nil {
		return err
	}

	const insertHistory = `
        INSERT INTO complaint_status_history (complaint_id, status, note, actor_account_id)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	if err := tx.QueryRow(ctx, insertHistory,
		complaint.ID,
		first.Status,
		first.Note,
		first.ActorID,
	).Scan(&first.CreatedAt); err != nil {
		return err
	}
	complaint.History = []domain.StatusEntry{first}

	return tx.Commit(ctx)
}

func (r *complaintRepository) GetByPublicID(ctx context.Context, publicID string) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE public_id=$1`
	var c domain.Complaint
	if err := r.pool.QueryRow(ctx, query, publicID).Scan(
		&c.ID,
		&c.PublicID,
		&c.Title,
		&c.Category,
		&c.Department,
		&c.Description,
		&c.Priority,
		&c.Status,
		&c.Reporter,
		&c.Contact,
		&c.AccountID,
		&c.Location.Address,
		&c.Location.Latitude,
		&c.Location.Longitude,
		&c.Attachments,
		&c.Identity,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ResolvedAt,
	); err != nil {
		return nil, err
	}

	history, err := r.ListHistory(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.History = history
	return &c, nil
}

func (r *complaintRepository) Transition(ctx context.Context, id string, expected domain.ComplaintStatus, entry domain.StatusEntry) (time.Time, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return time.Time{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateComplaint = `
        UPDATE complaints
        SET status=$1,
            updated_at=NOW(),
            resolved_at=CASE WHEN $2::boolean AND resolved_at IS NULL THEN NOW() ELSE resolved_at END
        WHERE id=$3 AND status=$4
        RETURNING updated_at`
	var updatedAt time.Time
	resolvedNow := entry.Status == domain.ComplaintStatusResolved
	if err := tx.QueryRow(ctx, updateComplaint,
		entry.Status,
		resolvedNow,
		id,
		expected,
	).Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrConcurrentUpdate
		}
		return time.Time{}, err
	}

	const insertHistory = `
        INSERT INTO complaint_status_history (complaint_id, status, note, actor_account_id)
        VALUES ($1,$2,$3,$4)`
	if _, err := tx.Exec(ctx, insertHistory,
		id,
		entry.Status,
		entry.Note,
		entry.ActorID,
	); err != nil {
		return time.Time{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, err
	}
	return updatedAt, nil
}

func (r *complaintRepository) ListHistory(ctx context.Context, complaintID string) ([]domain.StatusEntry, error) {
	const query = `
        SELECT status, note, actor_account_id, created_at
        FROM complaint_status_history
        WHERE complaint_id=$1
        ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.StatusEntry
	for rows.Next() {
		var entry domain.StatusEntry
		if err := rows.Scan(&entry.Status, &entry.Note, &entry.ActorID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	base := `SELECT ` + complaintColumns + ` FROM complaints`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		clauses = append(clauses, fmt.Sprintf("account_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		var c domain.Complaint
		if err := rows.Scan(
			&c.ID,
			&c.PublicID,
			&c.Title,
			&c.Category,
			&c.Department,
			&c.Description,
			&c.Priority,
			&c.Status,
			&c.Reporter,
			&c.Contact,
			&c.AccountID,
			&c.Location.Address,
			&c.Location.Latitude,
			&c.Location.Longitude,
			&c.Attachments,
			&c.Identity,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
