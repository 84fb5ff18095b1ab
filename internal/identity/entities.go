package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
)

// User is a store account. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"uid" db:"uid"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a user with a fresh uid.
func NewUser(name, email, phone, passwordHash string, isAdmin bool) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        normalizeEmail(email),
		Phone:        strings.TrimSpace(phone),
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CreateUserRequest is the signup payload.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  *bool  `json:"is_admin"`
}

// Validate reports absent required fields.
func (r CreateUserRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(r.Phone) == "" {
		missing = append(missing, "phone")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return apperr.MissingFields(missing...)
	}
	return nil
}

// UpdateUserRequest carries a partial profile; nil fields are left as they are.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
	IsAdmin  *bool   `json:"is_admin"`
}

type SetRoleRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse mirrors the shape clients of the store already consume.
type LoginResponse struct {
	IsAdmin     bool   `json:"isAdmin"`
	AccessToken string `json:"access_token"`
	Data        *User  `json:"data"`
}

var (
	ErrInvalidCredentials = apperr.Auth("invalid_credentials", "Invalid credentials")
	ErrDuplicateEmail     = apperr.Conflict("duplicate_email", "Email already exists")
	ErrDuplicatePhone     = apperr.Conflict("duplicate_phone", "Phone already exists")
	ErrUserNotFound       = apperr.NotFound("user_not_found", "user not found")
	ErrUserHasOrders      = apperr.Conflict("user_has_orders", "user has orders and cannot be deleted")
	ErrRoleChange         = apperr.Forbidden("role_change_forbidden", "only admins can change roles")
	ErrPasswordTooLong    = apperr.Validation("password_too_long", "password must be at most 72 bytes")
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
