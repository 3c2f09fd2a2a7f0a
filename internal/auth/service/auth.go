package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	"github.com/aussiebroadwan/keystone/internal/auth/store"
	"github.com/aussiebroadwan/keystone/pkg/cryptox"
	"github.com/aussiebroadwan/keystone/pkg/jwtx"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
	"github.com/samber/oops"
)

// AuthService runs the credential flows: login, refresh, password change
// and per-request actor resolution.
type AuthService struct {
	Store     store.Store
	Passwords *cryptox.PasswordPolicy
	Tokens    *jwtx.Codec
}

// Login checks the credential, then the account and its role, and issues
// an access/refresh pair. An expired password still yields tokens with
// Outcome set to domain.LoginPasswordExpired.
func (s *AuthService) Login(
	ctx context.Context,
	email, password string,
	rememberMe bool,
) (result *domain.LoginResult, err error) {
	defer func() { loginAttempts.WithLabelValues(loginOutcome(result, err)).Inc() }()
	l := slogx.FromContext(ctx)

	// 1. Locate the credential
	user, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("login for unknown email")
			return nil, ErrCredentialNotFound
		}
		return nil, oops.Code("STORE_FAILED").With("operation", "get user by email").Wrap(err)
	}

	// 2. Verify the password before revealing anything about the account
	if !s.Passwords.Verify(password, user.Password()) {
		l.Info("login password mismatch", slog.String("user_id", user.ID))
		return nil, ErrPasswordMismatch
	}

	// 3. Account and role must both be active
	if !user.IsActive {
		l.Info("login for inactive account", slog.String("user_id", user.ID))
		return nil, ErrAccountInactive
	}
	role, err := s.role(ctx, user)
	if err != nil {
		return nil, err
	}

	// 4. Issue the pair
	now := s.Tokens.Now().UTC()
	pair, err := s.issue(jwtx.Payload{
		Subject:        user.ID,
		Role:           role.Claim(),
		RememberMe:     rememberMe,
		LoginDate:      now,
		LoginExpiry:    s.Tokens.LoginExpiry(rememberMe),
		PasswordExpiry: user.PasswordExpiry,
	})
	if err != nil {
		return nil, err
	}

	result = &domain.LoginResult{Tokens: *pair, Outcome: domain.LoginSuccess}
	if s.Passwords.IsExpired(user.PasswordExpiry) {
		l.Info("login with expired password", slog.String("user_id", user.ID))
		result.Outcome = domain.LoginPasswordExpired
	}

	l.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", role.Name),
		slog.Bool("remember_me", rememberMe),
	)
	return result, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is returned unchanged and the session never outlives the
// login expiry it carries.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (pair *domain.TokenPair, err error) {
	defer func() { refreshAttempts.WithLabelValues(outcome(err)).Inc() }()
	l := slogx.FromContext(ctx)

	// 1. Verify the token
	p, err := s.Tokens.Verify(jwtx.KindRefresh, refreshToken)
	if err != nil {
		l.Info("refresh token rejected", slog.Any("error", err))
		return nil, err
	}
	if s.Tokens.Now().After(p.LoginExpiry) {
		l.Info("refresh after login expiry", slog.String("user_id", p.Subject))
		return nil, fmt.Errorf("%w: login expired", ErrTokenExpired)
	}

	// 2. Re-resolve the account, permissions may have changed since login
	actor, err := s.ResolveActor(ctx, p.Subject)
	if err != nil {
		return nil, err
	}
	if s.Passwords.IsExpired(actor.User.PasswordExpiry) {
		l.Info("refresh with expired password", slog.String("user_id", p.Subject))
		return nil, ErrPasswordExpired
	}

	// 3. Issue the access token only
	access, err := s.Tokens.Create(jwtx.KindAccess, jwtx.Payload{
		Subject:        actor.User.ID,
		Role:           actor.Role.Claim(),
		RememberMe:     p.RememberMe,
		LoginDate:      p.LoginDate,
		LoginExpiry:    p.LoginExpiry,
		PasswordExpiry: actor.User.PasswordExpiry,
	})
	if err != nil {
		return nil, oops.Code("TOKEN_SIGN_FAILED").With("kind", jwtx.KindAccess).Wrap(err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    s.Tokens.TTL(jwtx.KindAccess),
	}, nil
}

// ChangePassword replaces the subject's password after checking the old
// one. Reusing the current password is refused.
func (s *AuthService) ChangePassword(ctx context.Context, subject, oldPassword, newPassword string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCredentialNotFound
		}
		return oops.Code("STORE_FAILED").With("operation", "get user").Wrap(err)
	}

	if !s.Passwords.Verify(oldPassword, user.Password()) {
		l.Info("change password with wrong old password", slog.String("user_id", user.ID))
		return ErrPasswordMismatch
	}
	if s.Passwords.Verify(newPassword, user.Password()) {
		return ErrPasswordUnchanged
	}

	hashed, err := s.Passwords.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	err = s.Store.Users().UpdatePassword(ctx, user.ID, hashed.Hash, hashed.Salt, hashed.Expiry)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCredentialNotFound
		}
		return oops.Code("STORE_FAILED").With("operation", "update password").Wrap(err)
	}

	l.Info("password changed", slog.String("user_id", user.ID))
	return nil
}

// ResolveActor loads the subject's account and role and rejects either
// being inactive. The returned role carries only active permissions.
func (s *AuthService) ResolveActor(ctx context.Context, subject string) (domain.Actor, error) {
	user, err := s.Store.Users().GetUserByID(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Actor{}, ErrCredentialNotFound
		}
		return domain.Actor{}, oops.Code("STORE_FAILED").With("operation", "get user").Wrap(err)
	}
	if !user.IsActive {
		return domain.Actor{}, ErrAccountInactive
	}

	role, err := s.role(ctx, user)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{User: user, Role: role}, nil
}

func (s *AuthService) role(ctx context.Context, user domain.User) (domain.Role, error) {
	role, err := s.Store.Roles().GetRoleByID(ctx, user.RoleID)
	if err != nil {
		return domain.Role{}, oops.Code("STORE_FAILED").
			With("operation", "get role").
			With("role_id", user.RoleID).
			Wrap(err)
	}
	if !role.IsActive {
		slogx.FromContext(ctx).Info("role inactive",
			slog.String("user_id", user.ID),
			slog.String("role", role.Name),
		)
		return domain.Role{}, ErrRoleInactive
	}
	return role, nil
}

func (s *AuthService) issue(p jwtx.Payload) (*domain.TokenPair, error) {
	access, err := s.Tokens.Create(jwtx.KindAccess, p)
	if err != nil {
		return nil, oops.Code("TOKEN_SIGN_FAILED").With("kind", jwtx.KindAccess).Wrap(err)
	}
	refresh, err := s.Tokens.Create(jwtx.KindRefresh, p)
	if err != nil {
		return nil, oops.Code("TOKEN_SIGN_FAILED").With("kind", jwtx.KindRefresh).Wrap(err)
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.Tokens.TTL(jwtx.KindAccess),
	}, nil
}
