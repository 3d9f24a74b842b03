package account

import "time"

// Account is a login identity stored in the users table. PasswordHash is a
// bcrypt digest and never leaves the service.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
