package model

import "time"

const DefaultTicketStatus = "pending review"

// TicketStatuses are offered by the edit form; any non-empty status is accepted.
var TicketStatuses = []string{DefaultTicketStatus, "in progress", "resolved", "closed"}

// StatusOptions returns TicketStatuses, plus the ticket's own status when it is not one of them.
func (t *Ticket) StatusOptions() []string {
	for _, s := range TicketStatuses {
		if s == t.Status {
			return TicketStatuses
		}
	}
	return append(append([]string{}, TicketStatuses...), t.Status)
}

// Ticket 支援請求
type Ticket struct {
	ID        int        `json:"id" db:"id"`
	Firstname string     `json:"firstname" db:"firstname"`
	Lastname  string     `json:"lastname" db:"lastname"`
	Email     string     `json:"email" db:"email"`
	Priority  string     `json:"priority" db:"priority"`
	Subject   string     `json:"subject" db:"subject"`
	Message   string     `json:"message" db:"message"`
	File      *string    `json:"file,omitempty" db:"file"`
	Status    string     `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// HasFile reports whether an attachment was uploaded with the ticket.
func (t *Ticket) HasFile() bool {
	return t.File != nil && *t.File != ""
}

// UpdateTicketParams are the fields the edit form overwrites.
type UpdateTicketParams struct {
	Subject string
	Message string
	Status  string
}

// CreateTicketRequest 建立工單表單 (the attachment is read separately)
type CreateTicketRequest struct {
	Priority string `form:"priority"`
	Subject  string `form:"subject"`
	Message  string `form:"message"`
}

// UpdateTicketRequest 編輯工單表單
type UpdateTicketRequest struct {
	Subject string `form:"subject"`
	Message string `form:"message"`
	Status  string `form:"status"`
}
