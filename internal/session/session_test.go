package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/splitsync/internal/common"
)

type memMetadata struct {
	values map[string][]byte
}

func newMemMetadata() *memMetadata {
	return &memMetadata{values: make(map[string][]byte)}
}

func (m *memMetadata) Get(ctx context.Context, key string) ([]byte, error) {
	return m.values[key], nil
}

func (m *memMetadata) Set(ctx context.Context, key string, value []byte) error {
	m.values[key] = value
	return nil
}

func (m *memMetadata) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestManager_NoToken(t *testing.T) {
	m := NewManager(newMemMetadata())
	_, err := m.Token(context.Background())
	assert.ErrorIs(t, err, common.ErrNoSession)
	assert.False(t, m.Valid(context.Background()))
}

func TestManager_ValidToken(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newMemMetadata())

	saved := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, m.Save(ctx, saved))

	got, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.True(t, m.Valid(ctx))
}

func TestManager_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newMemMetadata())

	require.NoError(t, m.Save(ctx, signedToken(t, time.Now().Add(-time.Minute))))

	_, err := m.Token(ctx)
	assert.ErrorIs(t, err, common.ErrNoSession)
}

func TestManager_GarbageToken(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newMemMetadata())

	require.NoError(t, m.Save(ctx, "not-a-jwt"))

	_, err := m.Token(ctx)
	assert.ErrorIs(t, err, common.ErrNoSession)
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newMemMetadata())

	require.NoError(t, m.Save(ctx, signedToken(t, time.Now().Add(time.Hour))))
	require.NoError(t, m.Clear(ctx))

	assert.False(t, m.Valid(ctx))
}
