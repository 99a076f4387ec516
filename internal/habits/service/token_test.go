package service_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/pkg/jwtx"
)

func TestIssueAccessToken(t *testing.T) {
	hs, err := jwtx.NewHS256([]byte(strings.Repeat("k", jwtx.MinSecretLength)), "habits")
	require.NoError(t, err)

	svc := &service.TokenService{Signer: hs, Issuer: "habits", AccessTTL: time.Hour}
	user := domain.User{ID: 42, Username: "alice", IsAdmin: true}

	token, exp, err := svc.IssueAccessToken(user)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	claims, err := hs.Verify(token)
	require.NoError(t, err)
	require.Equal(t, strconv.FormatInt(user.ID, 10), claims.Subject)
	require.Equal(t, "alice", claims.Username)
	require.True(t, claims.Admin)
	require.NotEmpty(t, claims.ID)
}
