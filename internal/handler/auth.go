package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/auth"
	"github.com/sakif/medassoc/internal/metrics"
	"github.com/sakif/medassoc/internal/service"
)

// LoginService is what AuthHandler needs; *service.AuthService implements it.
type LoginService interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
}

// AuthHandler manages password login and the current-admin endpoint.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin → check username + password, return a bearer token
//   - HandleMe    → return the credential behind the presented token
//
// There is no logout: tokens are stateless and simply expire. The admin UI
// forgets its token on logout.
type AuthHandler struct {
	logins  LoginService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAuthHandler(logins LoginService, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{logins: logins, metrics: m, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: application/x-www-form-urlencoded username=...&password=...
//
//	(a JSON object with the same keys is also accepted)
//
// RESPONSE: 200 {"access_token": "...", "token_type": "bearer"}
//
// Every failure is the same 401 "Incorrect username or password", including
// a blank username or password. Only a body that cannot be read at all is a
// 400.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := readLogin(w, r)
	var res *service.LoginResult
	if err == nil {
		res, err = h.logins.Login(r.Context(), req.Username, req.Password)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.metrics.LoginResult(false)
		}
		writeError(w, err)
		return
	}

	h.metrics.LoginResult(true)
	writeJSON(w, http.StatusOK, res)
}

func readLogin(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(w, r, &req); err != nil {
			return req, err
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			return req, apperror.ValidationFailed("", "Invalid form body")
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return req, apperror.Unauthorized(service.LoginFailedMessage)
	}
	return req, nil
}

// HandleMe returns the authenticated admin.
//
// HTTP: GET /api/auth/me (bearer)
//
// The password hash is never serialised (json:"-" on the model).
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	cred, ok := auth.CredentialFromContext(r.Context())
	if !ok {
		// Only reachable if the route is mounted without RequireAuth.
		writeError(w, apperror.Unauthorized(auth.GateMessage))
		return
	}
	writeJSON(w, http.StatusOK, cred)
}
