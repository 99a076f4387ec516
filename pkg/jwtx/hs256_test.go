package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/habits/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("s", jwtx.MinSecretLength))

func TestHS256RoundTrip(t *testing.T) {
	h, err := jwtx.NewHS256(testSecret, "habits")
	require.NoError(t, err)
	require.Equal(t, "HS256", h.Alg())

	claims := jwtx.NewAccessClaims("7", "bob", false, time.Hour, "habits", time.Now())
	token, err := h.Sign(claims)
	require.NoError(t, err)

	got, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "7", got.Subject)
	require.Equal(t, "bob", got.Username)
	require.False(t, got.Admin)
}

func TestHS256Rejects(t *testing.T) {
	h, err := jwtx.NewHS256(testSecret, "habits")
	require.NoError(t, err)

	t.Run("weak secret", func(t *testing.T) {
		_, err := jwtx.NewHS256([]byte("short"), "habits")
		require.ErrorIs(t, err, jwtx.ErrWeakSecret)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := h.Verify("not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte(strings.Repeat("x", jwtx.MinSecretLength)), "habits")
		require.NoError(t, err)
		token, err := other.Sign(jwtx.NewAccessClaims("7", "bob", false, time.Hour, "habits", time.Now()))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := h.Sign(jwtx.NewAccessClaims("7", "bob", false, time.Minute, "habits", time.Now().Add(-time.Hour)))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := h.Sign(jwtx.NewAccessClaims("7", "bob", false, time.Hour, "elsewhere", time.Now()))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})
}
