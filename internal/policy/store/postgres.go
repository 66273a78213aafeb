package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
	txcontext "swiftpolicy/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres stores policies in the policies table. Details and the certificate
// reference are JSONB columns.
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

const policyColumns = `id, owner_id, vehicle_class, cover_type, duration, premium, status,
	details, mid_status, certificate, validated_at, notes, risk_flag, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, p *models.Policy) error {
	details, cert, err := encode(p)
	if err != nil {
		return err
	}
	_, err = s.q(ctx).ExecContext(ctx, `
		INSERT INTO policies (`+policyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.OwnerID, p.VehicleClass, p.CoverType, p.Duration, p.Premium, p.Status,
		details, p.MIDStatus, cert, p.ValidatedAt, p.Notes, p.RiskFlag, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("policy %s: %w", p.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.PolicyID) (*models.Policy, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+policyColumns+` FROM policies WHERE id = $1`, id)
	return scanPolicy(row)
}

func (s *Postgres) ListByOwner(ctx context.Context, owner domain.CustomerID) ([]*models.Policy, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE owner_id = $1 ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("query policies by owner: %w", err)
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Policy, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+policyColumns+` FROM policies ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}
	defer rows.Close()
	return scanPolicies(rows)
}

// Update locks the row with SELECT ... FOR UPDATE, applies fn and writes the
// result back in the same transaction.
func (s *Postgres) Update(ctx context.Context, id domain.PolicyID, fn func(*models.Policy) error) (*models.Policy, error) {
	var updated *models.Policy
	err := txcontext.Run(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+policyColumns+` FROM policies WHERE id = $1 FOR UPDATE`, id)
		p, err := scanPolicy(row)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		details, cert, err := encode(p)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE policies
			SET status = $2, details = $3, mid_status = $4, certificate = $5,
				validated_at = $6, notes = $7, risk_flag = $8, updated_at = $9
			WHERE id = $1`,
			p.ID, p.Status, details, p.MIDStatus, cert, p.ValidatedAt, p.Notes, p.RiskFlag, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update policy: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.PolicyID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func encode(p *models.Policy) (details []byte, cert []byte, err error) {
	details, err = json.Marshal(p.Details)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal policy details: %w", err)
	}
	if p.Certificate != nil {
		cert, err = json.Marshal(p.Certificate)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal certificate ref: %w", err)
		}
	}
	return details, cert, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*models.Policy, error) {
	var (
		p           models.Policy
		details     []byte
		cert        []byte
		validatedAt sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.VehicleClass, &p.CoverType, &p.Duration, &p.Premium, &p.Status,
		&details, &p.MIDStatus, &cert, &validatedAt, &p.Notes, &p.RiskFlag, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan policy: %w", err)
	}
	if err := json.Unmarshal(details, &p.Details); err != nil {
		return nil, fmt.Errorf("unmarshal policy details: %w", err)
	}
	if len(cert) > 0 {
		p.Certificate = &models.CertificateRef{}
		if err := json.Unmarshal(cert, p.Certificate); err != nil {
			return nil, fmt.Errorf("unmarshal certificate ref: %w", err)
		}
	}
	if validatedAt.Valid {
		at := validatedAt.Time
		p.ValidatedAt = &at
	}
	return &p, nil
}

func scanPolicies(rows *sql.Rows) ([]*models.Policy, error) {
	var out []*models.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}
	return out, nil
}
