package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Auth endpoints
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathLogout   = "/auth/logout"
	PathMe       = "/auth/me"
)

// Credentials is the login payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up payload
type Registration struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the authenticated user as returned by /auth/me
type Profile struct {
	ID       any      `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName,omitempty"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// DisplayName returns the best human-readable name
func (p Profile) DisplayName() string {
	switch {
	case p.FullName != "":
		return p.FullName
	case p.Username != "":
		return p.Username
	default:
		return p.Email
	}
}

// Login exchanges credentials for tokens and stores them
func (c *Client) Login(ctx context.Context, creds Credentials) (Tokens, error) {
	if creds.Email == "" || creds.Password == "" {
		return Tokens{}, errors.New("email and password are required")
	}

	body, err := encodeBody(creds)
	if err != nil {
		return Tokens{}, err
	}

	var tokens Tokens
	req := &Request{Method: http.MethodPost, Path: PathLogin}
	if err := c.roundTrip(ctx, req, body, "", &tokens); err != nil {
		return Tokens{}, err
	}
	if tokens.AccessToken == "" {
		return Tokens{}, errors.New("login response has no access token")
	}

	if c.tokens != nil {
		if err := c.tokens.SetTokens(tokens); err != nil {
			return tokens, fmt.Errorf("failed to store session: %w", err)
		}
	}
	return tokens, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg Registration) (Profile, error) {
	body, err := encodeBody(reg)
	if err != nil {
		return Profile{}, err
	}

	var profile Profile
	req := &Request{Method: http.MethodPost, Path: PathRegister}
	if err := c.roundTrip(ctx, req, body, "", &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Me returns the current user
func (c *Client) Me(ctx context.Context) (Profile, error) {
	if c.tokens == nil || c.tokens.AccessToken() == "" {
		return Profile{}, ErrNotAuthenticated
	}
	var profile Profile
	if err := c.Get(ctx, PathMe, nil, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Refresh forces a token exchange, joining one already in flight
func (c *Client) Refresh(ctx context.Context) error {
	if c.refresher == nil {
		return ErrNotAuthenticated
	}
	return c.refresher.forceRefresh(ctx)
}

// Logout revokes the session server-side and always clears it locally.
// The server error, if any, is returned after the local session is gone.
func (c *Client) Logout(ctx context.Context) error {
	if c.tokens == nil {
		return ErrNotAuthenticated
	}

	token := c.tokens.AccessToken()
	var serverErr error
	if token != "" {
		body, err := encodeBody(map[string]string{"refreshToken": c.tokens.RefreshToken()})
		if err != nil {
			return err
		}
		req := &Request{Method: http.MethodPost, Path: PathLogout}
		serverErr = c.roundTrip(ctx, req, body, token, nil)
	}

	if err := c.tokens.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return serverErr
}
