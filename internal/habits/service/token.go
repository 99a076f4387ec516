package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/pkg/jwtx"
)

type TokenService struct {
	Signer    jwtx.Signer
	Issuer    string
	AccessTTL time.Duration
}

// IssueAccessToken signs a bearer token for user. The admin claim is
// informational; admin routes re-check the stored role.
func (s *TokenService) IssueAccessToken(user domain.User) (string, time.Time, error) {
	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	claims := jwtx.NewAccessClaims(
		strconv.FormatInt(user.ID, 10),
		user.Username,
		user.IsAdmin,
		ttl,
		s.Issuer,
		time.Now(),
	)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}
