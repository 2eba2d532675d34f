// Package session tracks the device's authenticated session with the
// remote authority. The access token lives in the metadata store so it
// survives restarts.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
)

// Manager reads and validates the stored access token.
type Manager struct {
	metadata metadata.Repository
	now      func() time.Time
}

func NewManager(md metadata.Repository) *Manager {
	return &Manager{metadata: md, now: time.Now}
}

// Token returns the stored access token if it exists and has not
// expired. Otherwise it returns common.ErrNoSession.
func (m *Manager) Token(ctx context.Context) (string, error) {
	v, err := m.metadata.Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if v == nil {
		return "", common.ErrNoSession
	}

	tokenString := string(v)

	// The server verifies the signature. Here we only need the expiry
	// claim to avoid pushing with a token the server will reject.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", common.ErrNoSession
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", common.ErrNoSession
	}
	if !exp.After(m.now()) {
		return "", common.ErrNoSession
	}

	return tokenString, nil
}

// Valid reports whether a usable session exists.
func (m *Manager) Valid(ctx context.Context) bool {
	_, err := m.Token(ctx)
	return err == nil
}

// Save stores a freshly issued access token.
func (m *Manager) Save(ctx context.Context, token string) error {
	return m.metadata.Set(ctx, metadata.KeyAccessToken, []byte(token))
}

// Clear drops the stored token, forcing a new login.
func (m *Manager) Clear(ctx context.Context) error {
	return m.metadata.Delete(ctx, metadata.KeyAccessToken)
}
