package model

// Identity is the authenticated user attached to a request.
type Identity struct {
	UserID    int    `json:"user_id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
}

// Owns reports whether the ticket was created by this identity.
func (i *Identity) Owns(t *Ticket) bool {
	return i != nil && t != nil && t.Email == i.Email
}
