package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cryptox-test")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashPasswordFormat(t *testing.T) {
	for _, pw := range []string{"hunter2", "", "   ", "Müsli & Kaffee ☕", strings.Repeat("x", 200)} {
		hash, err := HashPassword(pw)
		require.NoError(t, err)

		parts := strings.Split(hash, "$")
		require.Len(t, parts, 6, "hash %q", hash)
		require.Equal(t, "argon2id", parts[1])
		require.Equal(t, "v=19", parts[2])
		require.Regexp(t, `^m=\d+,t=\d+,p=\d+$`, parts[3])
		require.NotEmpty(t, parts[4])
		require.NotEmpty(t, parts[5])

		require.NoError(t, VerifyPassword(pw, hash))
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a, err := HashPassword("same-password")
	require.NoError(t, err)
	b, err := HashPassword("same-password")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NotEqual(t, strings.Split(a, "$")[4], strings.Split(b, "$")[4])
}

func TestVerifyPasswordMismatch(t *testing.T) {
	hash, err := HashPassword("Correct-Horse-1")
	require.NoError(t, err)

	for _, guess := range []string{"correct-horse-1", "Correct-Horse-1 ", "", "Correct-Horse-2"} {
		require.ErrorIs(t, VerifyPassword(guess, hash), ErrPasswordMismatch, "guess %q", guess)
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	good, err := HashPassword("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	cases := map[string]string{
		"empty":          "",
		"bcrypt":         "$2a$10$abcdefghijklmnopqrstuv",
		"wrong version":  strings.Join([]string{"", "argon2id", "v=18", parts[3], parts[4], parts[5]}, "$"),
		"bad params":     strings.Join([]string{"", "argon2id", "v=19", "m=x", parts[4], parts[5]}, "$"),
		"bad salt":       strings.Join([]string{"", "argon2id", "v=19", parts[3], "!!!", parts[5]}, "$"),
		"too many parts": good + "$extra",
	}
	for name, hash := range cases {
		t.Run(name, func(t *testing.T) {
			err := VerifyPassword("pw", hash)
			require.Error(t, err)
			require.NotErrorIs(t, err, ErrPasswordMismatch)
		})
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		pw, err := GeneratePassword()
		require.NoError(t, err)
		require.Len(t, pw, 12)
		require.Regexp(t, `^[a-zA-Z0-9]+$`, pw)
		require.False(t, seen[pw], "duplicate generated password")
		seen[pw] = true
	}

	pw, err := GeneratePassword()
	require.NoError(t, err)
	hash, err := HashPassword(pw)
	require.NoError(t, err)
	require.NoError(t, VerifyPassword(pw, hash))
}
