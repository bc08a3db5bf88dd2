// Package auth keeps the signed-in student's token and record in local
// storage.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mikeboe/uniq-chat/pkg/clients"
)

// Student is the user record returned by the backend on login.
type Student struct {
	ID         int    `json:"id"`
	RollNo     string `json:"roll_no"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Branch     string `json:"branch"`
	Semester   int    `json:"semester"`
}

// Authenticator performs the credential exchange.
type Authenticator interface {
	Login(ctx context.Context, rollNo, password string) (*clients.LoginResponse, error)
}

// Gate tracks whether the local session is authenticated.
type Gate struct {
	Storage Storage
	Auth    Authenticator
	Logger  *slog.Logger

	mu   sync.RWMutex
	user *Student
}

func NewGate(storage Storage, authenticator Authenticator) *Gate {
	return &Gate{
		Storage: storage,
		Auth:    authenticator,
		Logger:  slog.Default(),
	}
}

// Restore reads a previous session from storage. A stored user record that
// does not parse clears storage.
func (g *Gate) Restore() {
	token, hasToken := g.Storage.Get(KeyToken)
	userData, hasUser := g.Storage.Get(KeyUser)
	if !hasToken || token == "" || !hasUser {
		return
	}

	var student Student
	if err := json.Unmarshal([]byte(userData), &student); err != nil {
		g.Logger.Error("Error parsing stored user record", "error", err)
		g.Logout()
		return
	}

	g.mu.Lock()
	g.user = &student
	g.mu.Unlock()
}

// Login exchanges credentials for a token. Storage is only written once the
// backend has accepted the credentials.
func (g *Gate) Login(ctx context.Context, rollNo, password string) error {
	resp, err := g.Auth.Login(ctx, rollNo, password)
	if err != nil {
		var statusErr *clients.StatusError
		if errors.As(err, &statusErr) {
			return errors.New(loginDetail(statusErr.Body))
		}
		return fmt.Errorf("login request failed: %w", err)
	}

	if raw := bytes.TrimSpace(resp.Student); len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return errors.New("login response carried no user")
	}
	var student Student
	if err := json.Unmarshal(resp.Student, &student); err != nil {
		return fmt.Errorf("invalid user record in login response: %w", err)
	}
	if resp.Token == "" {
		return errors.New("login response carried no token")
	}

	if err := g.Storage.Set(KeyToken, resp.Token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := g.Storage.Set(KeyUser, string(resp.Student)); err != nil {
		_ = g.Storage.Remove(KeyToken)
		return fmt.Errorf("failed to store user: %w", err)
	}

	g.mu.Lock()
	g.user = &student
	g.mu.Unlock()

	g.Logger.Info("Logged in", "roll_no", student.RollNo)
	return nil
}

// loginDetail extracts the backend's detail string from an error body.
func loginDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if detail, ok := payload.Detail.(string); ok && detail != "" {
			return detail
		}
	}
	return "Login failed"
}

// Logout clears storage and the in-memory user.
func (g *Gate) Logout() {
	if err := g.Storage.Remove(KeyToken); err != nil {
		g.Logger.Warn("Failed to remove token", "error", err)
	}
	if err := g.Storage.Remove(KeyUser); err != nil {
		g.Logger.Warn("Failed to remove user", "error", err)
	}

	g.mu.Lock()
	g.user = nil
	g.mu.Unlock()
}

func (g *Gate) Authenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user != nil
}

// User returns the signed-in student.
func (g *Gate) User() (Student, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return Student{}, false
	}
	return *g.user, true
}

// Token returns the stored bearer token, or "" when signed out.
func (g *Gate) Token() string {
	if !g.Authenticated() {
		return ""
	}
	token, _ := g.Storage.Get(KeyToken)
	return token
}
