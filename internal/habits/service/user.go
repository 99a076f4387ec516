package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/cryptox"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

const MaxUsernameLength = 64

type UserService struct {
	Store store.Store
}

// Register creates a regular account with an argon2id password hash.
func (s *UserService) Register(ctx context.Context, username, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.Store.Users().CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}

	log.Info("user registered", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	return user, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		slogx.FromContext(ctx).Info("login failed", slog.Int64("user_id", user.ID))
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// IsAdmin reads the stored role. It backs the admin middleware, so a demoted
// user loses access even while their token is still valid.
func (s *UserService) IsAdmin(ctx context.Context, id int64) (bool, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

// SetAdmin changes a user's role and queues the role change notification in
// the same transaction.
func (s *UserService) SetAdmin(ctx context.Context, id int64, isAdmin bool) (domain.User, error) {
	var updated domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		updated, err = tx.Users().UpdateUser(ctx, id, domain.UserPatch{IsAdmin: &isAdmin})
		if err != nil {
			return err
		}
		notifier := &NotificationService{Store: tx}
		_, err = notifier.NotifyRoleChange(ctx, id, isAdmin)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user role changed",
		slog.Int64("user_id", id),
		slog.Bool("is_admin", isAdmin),
	)
	return updated, nil
}

// Promote grants admin rights by username.
func (s *UserService) Promote(ctx context.Context, username string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, err
	}
	if user.IsAdmin {
		return user, nil
	}
	return s.SetAdmin(ctx, user.ID, true)
}

// CreateAdmin creates an administrator directly. When password is empty a
// random one is generated and returned.
func (s *UserService) CreateAdmin(ctx context.Context, username, password string) (domain.User, string, error) {
	if password == "" {
		generated, err := cryptox.GeneratePassword()
		if err != nil {
			return domain.User{}, "", fmt.Errorf("generate password: %w", err)
		}
		password = generated
	}

	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return domain.User{}, "", err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.Store.Users().CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, "", ErrUsernameTaken
		}
		return domain.User{}, "", err
	}
	return user, password, nil
}

// LinkHandle stores the external chat handle for username. Used by the
// Telegram /connect command.
func (s *UserService) LinkHandle(ctx context.Context, username, handle string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, err
	}

	updated, err := s.Store.Users().UpdateUser(ctx, user.ID, domain.UserPatch{ExternalHandle: &handle})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("external handle linked", slog.Int64("user_id", user.ID))
	return updated, nil
}

func validateCredentials(username, password string) error {
	if username == "" {
		return invalidf("username is required")
	}
	if len(username) > MaxUsernameLength {
		return invalidf("username must be at most %d characters", MaxUsernameLength)
	}
	if password == "" {
		return invalidf("password is required")
	}
	return nil
}
