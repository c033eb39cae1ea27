// File: internal/client/client.go

// Package client is a Go SDK for the clinic auth API. It mirrors the session
// context used by the web frontend: a current user, a loading flag and the last
// operation error, kept consistent under concurrent use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// User is the client-side view of the authenticated principal. Profile fields
// are present when the backend found a profile row for the uid.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role,omitempty"`
	Name        string `json:"name,omitempty"`
	Username    string `json:"username,omitempty"`
	Specialty   string `json:"specialty,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// RegisterInput is the registration payload. Specialty and DateOfBirth are
// only meaningful for the medic and patient roles respectively.
type RegisterInput struct {
	Role        string `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Specialty   string `json:"specialty,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// APIMessageError is the error surfaced when the backend rejected an
// operation. Message carries the backend's user-facing copy.
type APIMessageError struct {
	StatusCode int
	Message    string
}

func (e *APIMessageError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the auth API and tracks the session state the way the
// frontend's auth context does.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	user    *User
	token   string
	loading bool
	err     error
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		loading:    true,
	}
}

// Bootstrap performs the mount-time session check. Any failure resolves to an
// anonymous state; the loading flag is cleared either way.
func (c *Client) Bootstrap(ctx context.Context) {
	user, err := c.fetchCurrentUser(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.user = nil
	} else {
		c.user = user
	}
	c.loading = false
}

// Register creates a new account. The current user is untouched either way
// since registration requires email verification before login.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	c.setErr(nil)

	if _, _, err := c.post(ctx, "/api/auth/register", input); err != nil {
		c.setErr(err)
		return err
	}
	return nil
}

// Login authenticates and, on success, stores the session token and resolves
// the full user via check-auth. On failure the current user is untouched.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	c.setErr(nil)

	payload := map[string]string{"email": email, "password": password}
	body, _, err := c.post(ctx, "/api/auth/login", payload)
	if err != nil {
		c.setErr(err)
		return nil, err
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			UID         string `json:"uid"`
			Email       string `json:"email"`
			DisplayName string `json:"displayName"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		c.setErr(err)
		return nil, err
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	user, err := c.fetchCurrentUser(ctx)
	if err != nil {
		// The session is valid even if the profile fetch failed; fall back to
		// the login response fields.
		user = &User{UID: resp.User.UID, Email: resp.User.Email, DisplayName: resp.User.DisplayName}
	}

	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	return user, nil
}

// Logout revokes the session. On success the user and token are cleared.
func (c *Client) Logout(ctx context.Context) error {
	c.setErr(nil)

	_, _, err := c.post(ctx, "/api/auth/logout", nil)
	if err != nil {
		c.setErr(err)
		return err
	}

	c.mu.Lock()
	c.user = nil
	c.token = ""
	c.mu.Unlock()
	return nil
}

// RecoverPassword requests a password reset link. It intentionally does not
// clear a previous error on entry, matching the frontend behavior.
func (c *Client) RecoverPassword(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}
	if _, _, err := c.post(ctx, "/api/auth/recover-password", payload); err != nil {
		c.setErr(err)
		return err
	}
	return nil
}

// CheckAuth re-validates the session and refreshes the stored user. An
// unauthenticated response clears the user.
func (c *Client) CheckAuth(ctx context.Context) (*User, error) {
	c.setErr(nil)

	user, err := c.fetchCurrentUser(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.user = nil
		return nil, err
	}
	c.user = user
	return user, nil
}

// User returns the current user, or nil when anonymous.
func (c *Client) User() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Loading reports whether the initial Bootstrap has completed.
func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error left by the last failed operation, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// IsAuthenticated reports whether a user is currently signed in.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *Client) fetchCurrentUser(ctx context.Context) (*User, error) {
	body, _, err := c.get(ctx, "/api/auth/check-auth")
	if err != nil {
		return nil, err
	}
	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	var reqBody *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, resp.StatusCode, err
	}
	body := buf.Bytes()

	if resp.StatusCode >= 400 {
		return body, resp.StatusCode, &APIMessageError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(body),
		}
	}
	return body, resp.StatusCode, nil
}

// extractMessage pulls the user-facing message out of an error body, checking
// "message" before "error" the same way the frontend does.
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "Ocurrió un error inesperado."
	}
	if payload.Message != "" {
		return payload.Message
	}
	if payload.Error != "" {
		return payload.Error
	}
	return "Ocurrió un error inesperado."
}

// ErrorMessage unwraps the backend's user-facing message from an operation
// error, or returns the error text itself for transport failures.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIMessageError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
