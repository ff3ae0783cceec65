package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  DisplayName  – name shown on reservations (customerName).
//  PasswordHash – bcrypt hashed password.
//  Role         – USER or ADMIN.
//  IsActive     – whether the account is active.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	DisplayName  string    // users.display_name
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Favorite links a user to a bookable entity they saved.
type Favorite struct {
	UserID     uint64    `json:"userId"`
	BookableID uint64    `json:"bookableId"`
	CreatedAt  time.Time `json:"createdAt"`
}
