package client

import (
	"context"
	"net/http"
	"time"
)

// User represents a blog user as returned by the listing endpoint
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"createdAt"`
	Author        bool      `json:"author"`
	Bio           string    `json:"bio,omitempty"`
	ProfilePicURL string    `json:"profilePicUrl,omitempty"`
}

// Profile holds the editable, display-only profile fields
type Profile struct {
	Bio           string `json:"bio" validate:"max=1000"`
	ProfilePicURL string `json:"profilePicUrl" validate:"omitempty,url"`
}

// GetProfile returns the current user's profile
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/profile",
		auth:   true,
	}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile saves the current user's profile and returns the stored values
func (c *Client) UpdateProfile(ctx context.Context, in Profile) (*Profile, error) {
	var profile Profile
	if _, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/profile",
		body:   in,
		auth:   true,
	}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListUsers returns all registered users
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/users",
		auth:   true,
	}, &users); err != nil {
		return nil, err
	}
	return users, nil
}
