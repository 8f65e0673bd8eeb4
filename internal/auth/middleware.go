package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sakif/medassoc/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. Using a package-private type
// prevents collisions: only THIS package can create a key of type contextKey.
type contextKey string

const credentialKey contextKey = "credential"

// GateMessage is the single message every rejected bearer request gets.
const GateMessage = "Could not validate credentials"

// Authenticator resolves a bearer token to an active credential.
// service.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Credential, error)
}

// RequireAuth is a middleware that enforces authentication on mutating routes.
//
// It reads "Authorization: Bearer <token>", asks the Authenticator to resolve
// it, and stores the credential in the request context. A missing header, a
// wrong scheme, a bad token and a disabled credential all get the same 401
// with "WWW-Authenticate: Bearer", before the handler (and so before any
// state change) runs.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	    })
//	}
func RequireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			cred, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), credentialKey, cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CredentialFromContext returns the credential RequireAuth stored.
//
// Returns (nil, false) outside a protected route.
func CredentialFromContext(ctx context.Context) (*model.Credential, bool) {
	cred, ok := ctx.Value(credentialKey).(*model.Credential)
	return cred, ok && cred != nil
}

// BearerToken extracts the token from the Authorization header.
// The scheme is case-insensitive ("bearer" and "Bearer" both work).
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeUnauthorized writes the same body shape as handler.writeError. The
// handler package imports auth, so the body is built here rather than there.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": GateMessage,
		"detail":  GateMessage,
	})
}
