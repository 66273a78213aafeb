package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"swiftpolicy/pkg/domain"
	audit "swiftpolicy/pkg/platform/audit"
	txcontext "swiftpolicy/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts an event. Duplicate ids are ignored so replays are harmless.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, actor_id, action, target_id, details, reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		string(event.ID),
		string(event.Category),
		event.Timestamp,
		event.ActorID,
		event.Action,
		event.TargetID,
		event.Details,
		event.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByTarget returns events for one policy or submission, oldest first.
func (s *Store) ListByTarget(ctx context.Context, targetID string) ([]audit.Event, error) {
	query := `
		SELECT id, category, timestamp, actor_id, action, target_id, details, reason
		FROM audit_events
		WHERE target_id = $1
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, targetID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, category, timestamp, actor_id, action, target_id, details, reason
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			id       string
			category string
			event    audit.Event
		)
		if err := rows.Scan(
			&id,
			&category,
			&event.Timestamp,
			&event.ActorID,
			&event.Action,
			&event.TargetID,
			&event.Details,
			&event.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = domain.AuditEventID(id)
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
