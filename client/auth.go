package client

import (
	"context"
	"errors"
	"net/http"
)

// Credentials are the email and password sent to the login endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, cred Credentials) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/token", nil, cred, &out)
	return out, err
}

// AdminLogin signs in through the admin endpoint, which rejects non-admin accounts with 403.
func (c *Client) AdminLogin(ctx context.Context, cred Credentials) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/admin/login", nil, cred, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) Register(ctx context.Context, r Registration) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, r, &out)
	return out.User, err
}

// Authenticated reports whether the stored session cookie is still valid.
// A 401 yields false with a nil error.
func (c *Client) Authenticated(ctx context.Context) (bool, error) {
	var out struct {
		Authenticated bool `json:"authenticated"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/authenticated", nil, nil, &out)
	if errors.Is(err, ErrAuthExpired) {
		return false, nil
	}
	return out.Authenticated, err
}

func (c *Client) UserDetails(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodGet, "/auth/user-details", nil, nil, &out)
	return out, err
}
