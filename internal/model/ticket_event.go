package model

import (
	"time"

	"github.com/google/uuid"
)

// TicketAction 工單事件類型
type TicketAction string

const (
	TicketActionCreated TicketAction = "created"
	TicketActionUpdated TicketAction = "updated"
	TicketActionDeleted TicketAction = "deleted"
)

// IsValid 驗證事件類型是否有效
func (a TicketAction) IsValid() bool {
	switch a {
	case TicketActionCreated, TicketActionUpdated, TicketActionDeleted:
		return true
	}
	return false
}

// TicketEvent is one audit record of a change to a ticket.
// EventID stays the same across redeliveries; it is unique in ticket_events.
type TicketEvent struct {
	ID         int          `json:"id" db:"id"`
	EventID    string       `json:"event_id" db:"event_id"`
	TicketID   int          `json:"ticket_id" db:"ticket_id"`
	Action     TicketAction `json:"action" db:"action"`
	ActorEmail string       `json:"actor_email" db:"actor_email"`
	Status     string       `json:"status" db:"status"`
	OccurredAt time.Time    `json:"occurred_at" db:"occurred_at"`
}

func NewTicketEvent(ticket *Ticket, action TicketAction, actor *Identity) *TicketEvent {
	return &TicketEvent{
		EventID:    uuid.NewString(),
		TicketID:   ticket.ID,
		Action:     action,
		ActorEmail: actor.Email,
		Status:     ticket.Status,
		OccurredAt: time.Now().UTC(),
	}
}
