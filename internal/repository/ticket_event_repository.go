package repository

import (
	"context"
	"errors"
	"fmt"

	"go-gin-helpdesk/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketEventRepository interface {
	// Create 以 EventID 去重，重複投遞時回傳已存在的紀錄
	Create(ctx context.Context, event *model.TicketEvent) (*model.TicketEvent, error)
	// ListByTicketID 依發生時間列出工單事件
	ListByTicketID(ctx context.Context, ticketID int) ([]*model.TicketEvent, error)
}

type TicketEventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketEventRepository(pool *pgxpool.Pool) TicketEventRepository {
	return &TicketEventRepositoryImpl{
		pool: pool,
	}
}

func (r *TicketEventRepositoryImpl) Create(ctx context.Context, event *model.TicketEvent) (*model.TicketEvent, error) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	query := `
		INSERT INTO ticket_events (event_id, ticket_id, action, actor_email, status, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING id, event_id, ticket_id, action, actor_email, status, occurred_at
	`

	err := r.pool.QueryRow(ctx, query,
		event.EventID, event.TicketID, event.Action, event.ActorEmail, event.Status, event.OccurredAt,
	).Scan(
		&event.ID,
		&event.EventID,
		&event.TicketID,
		&event.Action,
		&event.ActorEmail,
		&event.Status,
		&event.OccurredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.getByEventID(ctx, event.EventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket event: %w", err)
	}

	return event, nil
}

func (r *TicketEventRepositoryImpl) getByEventID(ctx context.Context, eventID string) (*model.TicketEvent, error) {
	query := `
		SELECT id, event_id, ticket_id, action, actor_email, status, occurred_at
		FROM ticket_events
		WHERE event_id = $1
	`

	var event model.TicketEvent
	err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&event.ID,
		&event.EventID,
		&event.TicketID,
		&event.Action,
		&event.ActorEmail,
		&event.Status,
		&event.OccurredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket event %s: %w", eventID, err)
	}
	return &event, nil
}

func (r *TicketEventRepositoryImpl) ListByTicketID(ctx context.Context, ticketID int) ([]*model.TicketEvent, error) {
	query := `
		SELECT id, event_id, ticket_id, action, actor_email, status, occurred_at
		FROM ticket_events
		WHERE ticket_id = $1
		ORDER BY occurred_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.TicketEvent, 0)
	for rows.Next() {
		var event model.TicketEvent
		err := rows.Scan(
			&event.ID,
			&event.EventID,
			&event.TicketID,
			&event.Action,
			&event.ActorEmail,
			&event.Status,
			&event.OccurredAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
