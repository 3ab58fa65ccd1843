package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/finbroker/internal/client/repositories/metadata"
)

func newStore(t *testing.T) metadata.Repository {
	t.Helper()
	db, err := metadata.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return metadata.NewSQLiteRepository(db)
}

func signedToken(t *testing.T, role string) string {
	t.Helper()
	claims := Claims{
		UserID: 7,
		Email:  "agent@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSession_SetAndRestore(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	s := New(store, nil)
	require.NoError(t, s.SetToken(ctx, "tok-1"))
	require.Equal(t, "tok-1", s.Token())

	// A fresh session over the same store picks the token up.
	s2 := New(store, nil)
	require.Empty(t, s2.Token())
	require.NoError(t, s2.Restore(ctx))
	require.Equal(t, "tok-1", s2.Token())
}

func TestSession_ClearRemovesPersistedToken(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	s := New(store, nil)
	require.NoError(t, s.SetToken(ctx, "tok-1"))
	require.NoError(t, s.Clear(ctx))
	require.Empty(t, s.Token())

	s2 := New(store, nil)
	require.NoError(t, s2.Restore(ctx))
	require.Empty(t, s2.Token())
}

func TestSession_ExpireFiresHookOnce(t *testing.T) {
	calls := 0
	s := New(nil, func() { calls++ })
	require.NoError(t, s.SetToken(context.Background(), "tok"))

	s.Expire(context.Background())
	assert.Empty(t, s.Token())
	assert.Equal(t, 1, calls)
}

func TestSession_Claims(t *testing.T) {
	s := New(nil, nil)

	_, err := s.Claims()
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.SetToken(context.Background(), signedToken(t, "agent")))
	claims, err := s.Claims()
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "agent", claims.Role)
}

func TestSession_ClaimsGarbageToken(t *testing.T) {
	s := New(nil, nil)
	require.NoError(t, s.SetToken(context.Background(), "not-a-jwt"))
	_, err := s.Claims()
	require.Error(t, err)
}
