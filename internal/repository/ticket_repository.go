package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-gin-helpdesk/internal/model"
	apperrors "go-gin-helpdesk/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	FindByID(ctx context.Context, id int) (*model.Ticket, error)
	// ListByEmail 依建立順序列出某 email 的工單
	ListByEmail(ctx context.Context, email string) ([]*model.Ticket, error)
	Update(ctx context.Context, id int, params model.UpdateTicketParams) (*model.Ticket, error)
	// Delete 只刪除 id 與 email 都相符的工單，回傳是否有刪除
	Delete(ctx context.Context, id int, email string) (bool, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `id, firstname, lastname, email, priority, subject, message,
		file, status, created_at, updated_at, deleted_at`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.Firstname,
		&ticket.Lastname,
		&ticket.Email,
		&ticket.Priority,
		&ticket.Subject,
		&ticket.Message,
		&ticket.File,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepositoryImpl) Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	if ticket.Status == "" {
		ticket.Status = model.DefaultTicketStatus
	}

	query := `
		INSERT INTO tickets (
			firstname, lastname, email, priority, subject, message, file, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + ticketColumns

	created, err := scanTicket(r.pool.QueryRow(ctx, query,
		ticket.Firstname, ticket.Lastname, ticket.Email, ticket.Priority,
		ticket.Subject, ticket.Message, ticket.File, ticket.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return created, nil
}

func (r *TicketRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE id = $1 AND deleted_at IS NULL
	`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}

	return ticket, nil
}

func (r *TicketRepositoryImpl) ListByEmail(ctx context.Context, email string) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE email = $1 AND deleted_at IS NULL
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *TicketRepositoryImpl) Update(ctx context.Context, id int, params model.UpdateTicketParams) (*model.Ticket, error) {
	query := `
		UPDATE tickets
		SET subject = $1, message = $2, status = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query,
		params.Subject, params.Message, params.Status, time.Now().UTC(), id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	return ticket, nil
}

func (r *TicketRepositoryImpl) Delete(ctx context.Context, id int, email string) (bool, error) {
	query := `
		UPDATE tickets
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND email = $3 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), id, email)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}
