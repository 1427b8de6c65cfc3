package models

import "time"

type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	Deposit      int       `db:"deposit" json:"deposit"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// Actor is the authenticated caller of an operation. A nil *Actor is anonymous.
type Actor struct {
	ID       int
	Username string
	Role     Role
	IsAdmin  bool
}

func (u *User) Actor() *Actor {
	return &Actor{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		IsAdmin:  u.IsAdmin,
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest replaces the account's fields. Password is required and
// always re-hashed; Role and Deposit keep their current value when omitted.
type UpdateUserRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Role     *string `json:"role,omitempty"`
	Deposit  *int    `json:"deposit,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token,omitempty"`
}
