package auth

import "time"

// Operator is a user of the desktop shell. Movements and cash transactions
// stamp the operator's display name as actor.
type Operator struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
}
