package auth

import "time"

type Role string

const (
	RoleParty      Role = "party"
	RoleArbitrator Role = "arbitrator"
	RoleOwner      Role = "owner"
)

// User is the domain representation of an authenticated principal. Its ID
// doubles as the ledger account identifier the engine sees as the opaque
// caller identity. No JSON annotations so it can be reused by different
// presentation layers.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest contains user registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
