package client

import (
	"context"
	"net/http"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// TokenResponse is returned by /login and /register
type TokenResponse struct {
	Token string `json:"token"`
}

// Login authenticates the user and returns the issued token
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out TokenResponse
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/login",
		body:   LoginRequest{Username: username, Password: password},
	}, &out)
	if err != nil {
		return "", err
	}
	return tokenFrom(resp, out)
}

// Register creates an account and returns the issued token
func (c *Client) Register(ctx context.Context, username, password, email string) (string, error) {
	var out TokenResponse
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/register",
		body:   RegisterRequest{Username: username, Password: password, Email: email},
	}, &out)
	if err != nil {
		return "", err
	}
	return tokenFrom(resp, out)
}

// tokenFrom prefers the JSON body and falls back to the "token" cookie some API
// versions set instead
func tokenFrom(resp *http.Response, out TokenResponse) (string, error) {
	if out.Token != "" {
		return out.Token, nil
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "token" && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", ErrNoTokenInResponse
}
