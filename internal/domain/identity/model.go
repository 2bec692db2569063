package identity

import "time"

// Roles a user can hold. Patients open intake conversations; doctors work
// the queue.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// User is an account in the intake system. The hashed password never
// leaves the server.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token back to the client.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// ValidRole reports whether the role is one the system knows.
func ValidRole(role string) bool {
	return role == RolePatient || role == RoleDoctor
}
