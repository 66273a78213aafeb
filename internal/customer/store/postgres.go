package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"swiftpolicy/internal/customer/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const customerColumns = `id, first_name, last_name, email, phone, created_at`

func (s *Postgres) Save(ctx context.Context, c *models.Customer) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO customers (`+customerColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("customer %s: %w", c.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.CustomerID) (*models.Customer, error) {
	return s.findOne(ctx, `WHERE id = $1`, id)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return s.findOne(ctx, `WHERE email = $1`, models.NormalizeEmail(email))
}

func (s *Postgres) findOne(ctx context.Context, where string, arg any) (*models.Customer, error) {
	var (
		c     models.Customer
		phone sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers `+where, arg).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &phone, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	if phone.Valid {
		c.Phone = &phone.String
	}
	return &c, nil
}

func (s *Postgres) Exists(ctx context.Context, id domain.CustomerID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer: %w", err)
	}
	return exists, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.CustomerID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
