package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"swiftpolicy/internal/document/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres keeps rendered certificates in the certificates table as BYTEA.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const documentColumns = `id, policy_id, storage_key, content_type, content, token, created_at`

func (s *Postgres) Put(ctx context.Context, doc *models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO certificates (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.PolicyID, doc.StorageKey, doc.ContentType, doc.Content, doc.Token, doc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id domain.DocumentID) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM certificates WHERE id = $1`, id)
	var doc models.Document
	err := row.Scan(&doc.ID, &doc.PolicyID, &doc.StorageKey, &doc.ContentType, &doc.Content, &doc.Token, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	return &doc, nil
}

func (s *Postgres) ListByPolicy(ctx context.Context, policyID domain.PolicyID) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM certificates WHERE policy_id = $1 ORDER BY created_at`, policyID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.PolicyID, &doc.StorageKey, &doc.ContentType, &doc.Content, &doc.Token, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return out, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.DocumentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
