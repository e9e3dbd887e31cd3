package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"caregate/internal/audit/outbox"

	"github.com/google/uuid"
)

// PostgresStore persists audit events in PostgreSQL. Each append writes the
// queryable audit_events row and an outbox row in one transaction; the
// outbox worker publishes the latter to Kafka for downstream compliance
// consumers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a new PostgreSQL audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	details, err := marshalDetails(event.Details)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
	}()

	insertEvent := `
		INSERT INTO audit_events (
			id, actor_id, actor_email, action, resource_type, resource_id,
			outcome, timestamp, ip_address, user_agent,
			request_method, request_url, response_status, request_id, details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = tx.ExecContext(ctx, insertEvent,
		event.ID, event.ActorID, event.ActorEmail, event.Action,
		event.ResourceType, event.ResourceID, string(event.Outcome),
		event.Timestamp, event.IPAddress, event.UserAgent,
		event.RequestMethod, event.RequestURL, event.ResponseStatus,
		event.RequestID, details,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	aggregateType, aggregateID := "audit", event.ID.String()
	if event.ActorID != nil {
		aggregateType, aggregateID = "user", event.ActorID.String()
	}
	insertOutbox := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, insertOutbox,
		uuid.New(), aggregateType, aggregateID, event.Action, payload, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit append: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, actor_id, actor_email, action, resource_type, resource_id,
			   outcome, timestamp, ip_address, user_agent,
			   request_method, request_url, response_status, request_id, details
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

func (s *PostgresStore) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]Event, error) {
	query := `
		SELECT id, actor_id, actor_email, action, resource_type, resource_id,
			   outcome, timestamp, ip_address, user_agent,
			   request_method, request_url, response_status, request_id, details
		FROM audit_events
		WHERE actor_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events by actor: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event      Event
			actorID    *uuid.UUID
			outcome    string
			detailsRaw []byte
		)
		err := rows.Scan(
			&event.ID, &actorID, &event.ActorEmail, &event.Action,
			&event.ResourceType, &event.ResourceID, &outcome,
			&event.Timestamp, &event.IPAddress, &event.UserAgent,
			&event.RequestMethod, &event.RequestURL, &event.ResponseStatus,
			&event.RequestID, &detailsRaw,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ActorID = actorID
		event.Outcome = Outcome(outcome)
		if len(detailsRaw) > 0 {
			if err := json.Unmarshal(detailsRaw, &event.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func marshalDetails(details map[string]any) ([]byte, error) {
	if details == nil {
		return nil, nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal audit details: %w", err)
	}
	return raw, nil
}

// Outbox exposes the outbox reader side for the publishing worker.
func (s *PostgresStore) Outbox() *outbox.PostgresStore {
	return outbox.NewPostgres(s.db)
}
