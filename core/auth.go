package core

import (
	"context"
	"errors"
	"time"
)

// Roles stored on users and in the session cookie.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an authenticated principal returned to handlers.
type User struct {
	ID        int64
	Email     string
	Username  string
	Role      string
	CreatedAt time.Time
}

var (
	// ErrInvalidCredentials is returned when email/password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveUser is returned when an administrator deactivated the account.
	ErrInactiveUser = errors.New("account is inactive")
	// ErrDuplicateEmail is returned when registering an email that is taken.
	ErrDuplicateEmail = errors.New("email is already in use")
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")
)

// RegisterInput is the payload accepted by AuthService.Register.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService defines authentication behaviour.
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (User, error)
	Register(ctx context.Context, in RegisterInput) (User, error)
}

// UserProfile is the current-user document returned by /auth/user-details.
type UserProfile struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Role        string     `json:"role"`
	Interests   []Category `json:"interests"`
}
