package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/auth"
	"github.com/sakif/medassoc/internal/model"
)

const testSecret = "test-secret-at-least-16-bytes"

func newTestAuthService(t *testing.T) (*AuthService, *fakeCredentialRepo, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	repo := newFakeCredentialRepo()
	svc := NewAuthService(repo, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger())
	return svc, repo, tokens
}

func seedAdmin(t *testing.T, svc *AuthService) {
	t.Helper()
	created, err := svc.EnsureAdmin(context.Background(), AdminSeed{
		Username: "admin",
		Password: "correct horse",
		FullName: "Association Admin",
	})
	if err != nil || !created {
		t.Fatalf("EnsureAdmin() = %v, %v; want true, nil", created, err)
	}
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)
	seedAdmin(t, svc)

	res, err := svc.Login(context.Background(), " admin ", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want bearer", res.TokenType)
	}
	sub, err := tokens.Verify(res.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if sub != "admin" {
		t.Errorf("token subject = %q, want admin", sub)
	}
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		disable  bool
	}{
		{"unknown user", "nobody", "correct horse", false},
		{"wrong password", "admin", "wrong", false},
		{"empty password", "admin", "", false},
		{"disabled", "admin", "correct horse", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestAuthService(t)
			seedAdmin(t, svc)
			if tt.disable {
				if err := svc.SetDisabled(context.Background(), "admin", true); err != nil {
					t.Fatalf("SetDisabled() error = %v", err)
				}
			}

			_, err := svc.Login(context.Background(), tt.username, tt.password)
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Fatalf("error = %v, want ErrUnauthorized", err)
			}
			if err.Error() != LoginFailedMessage {
				t.Errorf("message = %q, want %q", err.Error(), LoginFailedMessage)
			}
		})
	}
}

func TestLogin_StoreDown(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.err = errStoreDown

	_, err := svc.Login(context.Background(), "admin", "x")
	if !errors.Is(err, errStoreDown) {
		t.Errorf("error = %v, want wrapped errStoreDown", err)
	}
}

// =========================================================================
// AUTHENTICATE (bearer gate)
// =========================================================================

func TestAuthenticate(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)
	seedAdmin(t, svc)

	good, _ := tokens.Issue("admin")
	expired, _ := tokens.IssueWithTTL("admin", -time.Minute)
	ghost, _ := tokens.Issue("ghost")
	other, _ := auth.NewTokenService("another-secret-of-16-bytes", time.Hour)
	forged, _ := other.Issue("admin")

	cred, err := svc.Authenticate(context.Background(), good)
	if err != nil {
		t.Fatalf("Authenticate(valid) error = %v", err)
	}
	if cred.Username != "admin" || cred.PasswordHash == "" {
		t.Errorf("credential = %+v", cred)
	}

	for name, tok := range map[string]string{
		"expired":      expired,
		"unknown user": ghost,
		"wrong secret": forged,
		"garbage":      "not.a.jwt",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tok)
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Fatalf("error = %v, want ErrUnauthorized", err)
			}
			if err.Error() != auth.GateMessage {
				t.Errorf("message = %q, want %q", err.Error(), auth.GateMessage)
			}
		})
	}
}

func TestAuthenticate_DisabledAfterIssue(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)
	seedAdmin(t, svc)
	tok, _ := tokens.Issue("admin")

	if err := svc.SetDisabled(context.Background(), "admin", true); err != nil {
		t.Fatalf("SetDisabled() error = %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), tok); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("disabled credential passed the gate: %v", err)
	}

	if err := svc.SetDisabled(context.Background(), "admin", false); err != nil {
		t.Fatalf("SetDisabled(false) error = %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), tok); err != nil {
		t.Errorf("re-enabled credential rejected: %v", err)
	}
}

// =========================================================================
// BOOTSTRAP AND ADMIN OPERATIONS
// =========================================================================

func TestEnsureAdmin_Idempotent(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	seedAdmin(t, svc)

	created, err := svc.EnsureAdmin(context.Background(), AdminSeed{Username: "admin", Password: "different"})
	if err != nil {
		t.Fatalf("second EnsureAdmin() error = %v", err)
	}
	if created {
		t.Error("second EnsureAdmin() reported a new admin")
	}
	if len(repo.creds) != 1 {
		t.Errorf("stored %d credentials, want 1", len(repo.creds))
	}

	// The original password still works.
	if _, err := svc.Login(context.Background(), "admin", "correct horse"); err != nil {
		t.Errorf("Login() after second EnsureAdmin: %v", err)
	}
}

// racingCredentialRepo reports not-found on lookup and conflict on create,
// as a store does when another process bootstraps the admin in between.
type racingCredentialRepo struct {
	*fakeCredentialRepo
}

func (r racingCredentialRepo) GetByUsername(_ context.Context, username string) (*model.Credential, error) {
	return nil, apperror.NotFound("Credential", username)
}

func (r racingCredentialRepo) Create(_ context.Context, cred *model.Credential) error {
	return apperror.Conflict("Credential", cred.Username)
}

func TestEnsureAdmin_ConcurrentBootstrap(t *testing.T) {
	tokens, _ := auth.NewTokenService(testSecret, time.Hour)
	svc := NewAuthService(racingCredentialRepo{newFakeCredentialRepo()}, tokens,
		auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger())

	created, err := svc.EnsureAdmin(context.Background(), AdminSeed{Username: "admin", Password: "pw"})
	if err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if created {
		t.Error("EnsureAdmin() reported creation after a conflict")
	}
}

func TestEnsureAdmin_RequiresUsername(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.EnsureAdmin(context.Background(), AdminSeed{Username: " ", Password: "pw"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestResetPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	seedAdmin(t, svc)
	ctx := context.Background()

	if err := svc.ResetPassword(ctx, "admin", "new secret"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if _, err := svc.Login(ctx, "admin", "correct horse"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("old password still accepted: %v", err)
	}
	if _, err := svc.Login(ctx, "admin", "new secret"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	if err := svc.ResetPassword(ctx, "nobody", "x"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ResetPassword(unknown) error = %v, want ErrNotFound", err)
	}
	if err := svc.ResetPassword(ctx, "admin", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ResetPassword(empty) error = %v, want ErrValidation", err)
	}
}
