package service

// AuthService is the business logic layer for authentication:
//
//	AuthHandler (HTTP) → AuthService → CredentialRepository (store)
//	                                 ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It also implements auth.Authenticator for the bearer gate, and carries the
// two out-of-band operations cmd/admin needs (password reset, disable).

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/auth"
	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

const (
	// LoginFailedMessage is returned for every failed login.
	LoginFailedMessage = "Incorrect username or password"

	// DefaultAdminPassword is the bootstrap password shipped with the
	// association's install notes. Using it logs a warning.
	DefaultAdminPassword = "admin123"

	tokenType = "bearer"
)

var _ auth.Authenticator = (*AuthService)(nil)

type AuthService struct {
	creds     repository.CredentialRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	creds repository.CredentialRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		creds:     creds,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// LoginResult is the body of a successful POST /api/auth/login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login checks username + password and issues an access token.
//
// UNKNOWN USER, WRONG PASSWORD, DISABLED:
// All three return the same apperror.Unauthorized(LoginFailedMessage). For an
// unknown username a bcrypt comparison still runs (against a throwaway hash),
// so the response time does not reveal which usernames exist. The real reason
// is logged, never returned.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)

	cred, err := s.creds.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: loading credential: %w", err)
		}
		_ = s.passwords.Verify(s.dummy(), password)
		s.loginFailed(username, "unknown user")
		return nil, apperror.Unauthorized(LoginFailedMessage)
	}

	if err := s.passwords.Verify(cred.PasswordHash, password); err != nil {
		reason := "wrong password"
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			reason = "unreadable password hash"
		}
		s.loginFailed(username, reason)
		return nil, apperror.Unauthorized(LoginFailedMessage)
	}

	if cred.Disabled {
		s.loginFailed(username, "credential disabled")
		return nil, apperror.Unauthorized(LoginFailedMessage)
	}

	token, err := s.tokens.Issue(cred.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token: %w", err)
	}

	s.logger.Info("login succeeded", slog.String("username", cred.Username))
	return &LoginResult{AccessToken: token, TokenType: tokenType}, nil
}

func (s *AuthService) loginFailed(username, reason string) {
	s.logger.Warn("login failed",
		slog.String("username", username),
		slog.String("reason", reason),
	)
}

// dummy returns a hash that no password matches. Built on first use so that
// constructing the service stays cheap.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash("unknown-user-placeholder")
		if err != nil {
			s.logger.Error("building placeholder hash", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Authenticate resolves a bearer token to an enabled credential. Every
// failure is the same Unauthorized error; the gate never says why.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Credential, error) {
	username, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperror.Unauthorized(auth.GateMessage)
	}

	cred, err := s.creds.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("loading credential for token",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(auth.GateMessage)
	}
	if cred.Disabled {
		return nil, apperror.Unauthorized(auth.GateMessage)
	}
	return cred, nil
}

// AdminSeed is the identity EnsureAdmin creates when none exists.
type AdminSeed struct {
	Username string
	Password string
	FullName string
}

// EnsureAdmin creates the admin credential if it is absent and reports
// whether it did. It runs at every start; the store's unique username index
// makes a concurrent second bootstrap fail with Conflict, which counts as
// "already exists".
func (s *AuthService) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	username := strings.TrimSpace(seed.Username)
	if username == "" {
		return false, apperror.ValidationFailed("username", "admin username is required")
	}

	_, err := s.creds.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return false, fmt.Errorf("service/auth: checking admin: %w", err)
	}

	hash, err := s.passwords.Hash(seed.Password)
	if err != nil {
		return false, fmt.Errorf("service/auth: hashing admin password: %w", err)
	}

	cred := &model.Credential{
		Username:     username,
		FullName:     strings.TrimSpace(seed.FullName),
		PasswordHash: hash,
	}
	if err := s.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("service/auth: creating admin: %w", err)
	}

	s.logger.Info("admin credential created", slog.String("username", username))
	if seed.Password == DefaultAdminPassword {
		s.logger.Warn("admin created with the default password; change it with cmd/admin before going live",
			slog.String("username", username),
		)
	}
	return true, nil
}

// ResetPassword replaces the password hash of username.
func (s *AuthService) ResetPassword(ctx context.Context, username, password string) error {
	cred, err := s.creds.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}
	cred.PasswordHash = hash

	if err := s.creds.Update(ctx, cred); err != nil {
		return fmt.Errorf("service/auth: resetting password: %w", err)
	}
	s.logger.Info("admin password reset", slog.String("username", cred.Username))
	return nil
}

// SetDisabled flips the disabled gate. A disabled credential cannot log in
// and its outstanding tokens stop passing the gate.
func (s *AuthService) SetDisabled(ctx context.Context, username string, disabled bool) error {
	cred, err := s.creds.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	cred.Disabled = disabled

	if err := s.creds.Update(ctx, cred); err != nil {
		return fmt.Errorf("service/auth: updating credential: %w", err)
	}
	s.logger.Info("admin credential updated",
		slog.String("username", cred.Username),
		slog.Bool("disabled", disabled),
	)
	return nil
}
