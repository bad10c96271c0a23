package domain

import "time"

// User is an identity record. The password hash is carried so the storage
// layer can verify credentials; it must never leave the service boundary.
type User struct {
	ID           int
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser is the caller-facing shape of a user, stripped of credentials.
type PublicUser struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Public returns the view of the user that is safe to serialize in responses.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
