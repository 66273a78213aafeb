package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"swiftpolicy/internal/registry/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
	txcontext "swiftpolicy/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres stores submissions in mid_submissions. The sequence column is a
// BIGSERIAL so enqueue order survives restarts and is shared across processes.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const submissionColumns = `id, policy_id, vrm, status, submitted_at, last_attempt_at,
	retry_count, response_data, sequence, updated_at`

func (s *Postgres) Create(ctx context.Context, sub *models.Submission) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO mid_submissions (id, policy_id, vrm, status, submitted_at, last_attempt_at,
			retry_count, response_data, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING sequence`,
		sub.ID, sub.PolicyID, sub.VRM, sub.Status, sub.SubmittedAt, sub.LastAttemptAt,
		sub.RetryCount, sub.ResponseData, sub.UpdatedAt,
	).Scan(&sub.Sequence)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("submission for policy %s: %w", sub.PolicyID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.SubmissionID) (*models.Submission, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM mid_submissions WHERE id = $1`, id)
	return scanSubmission(row)
}

func (s *Postgres) FindByPolicy(ctx context.Context, policyID domain.PolicyID) (*models.Submission, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM mid_submissions WHERE policy_id = $1 ORDER BY sequence DESC LIMIT 1`, policyID)
	return scanSubmission(row)
}

func (s *Postgres) ListByPolicy(ctx context.Context, policyID domain.PolicyID) ([]*models.Submission, error) {
	return s.query(ctx, `WHERE policy_id = $1`, policyID)
}

// ListByStatus returns matching submissions in enqueue order.
func (s *Postgres) ListByStatus(ctx context.Context, statuses ...domain.MIDStatus) ([]*models.Submission, error) {
	raw := make([]string, len(statuses))
	for i, st := range statuses {
		raw[i] = string(st)
	}
	return s.query(ctx, `WHERE status = ANY($1)`, pq.Array(raw))
}

func (s *Postgres) ListByVRM(ctx context.Context, vrm domain.VRM) ([]*models.Submission, error) {
	return s.query(ctx, `WHERE vrm = $1`, vrm)
}

func (s *Postgres) query(ctx context.Context, where string, args ...any) ([]*models.Submission, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM mid_submissions `+where+` ORDER BY sequence`, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()
	var out []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

// Update locks the row, applies fn and writes it back in one transaction.
func (s *Postgres) Update(ctx context.Context, id domain.SubmissionID, fn func(*models.Submission) error) (*models.Submission, error) {
	var updated *models.Submission
	err := txcontext.Run(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM mid_submissions WHERE id = $1 FOR UPDATE`, id)
		sub, err := scanSubmission(row)
		if err != nil {
			return err
		}
		if err := fn(sub); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE mid_submissions
			SET status = $2, last_attempt_at = $3, retry_count = $4, response_data = $5, updated_at = $6
			WHERE id = $1`,
			sub.ID, sub.Status, sub.LastAttemptAt, sub.RetryCount, sub.ResponseData, sub.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update submission: %w", err)
		}
		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Postgres) DeleteByPolicy(ctx context.Context, policyID domain.PolicyID) (int, error) {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM mid_submissions WHERE policy_id = $1`, policyID)
	if err != nil {
		return 0, fmt.Errorf("delete submissions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete submissions: %w", err)
	}
	return int(n), nil
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[domain.MIDStatus]int, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT status, COUNT(*) FROM mid_submissions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	defer rows.Close()
	out := make(map[domain.MIDStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan submission count: %w", err)
		}
		out[domain.MIDStatus(status)] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		sub         models.Submission
		lastAttempt sql.NullTime
	)
	err := row.Scan(
		&sub.ID, &sub.PolicyID, &sub.VRM, &sub.Status, &sub.SubmittedAt, &lastAttempt,
		&sub.RetryCount, &sub.ResponseData, &sub.Sequence, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	if lastAttempt.Valid {
		at := lastAttempt.Time
		sub.LastAttemptAt = &at
	}
	return &sub, nil
}
