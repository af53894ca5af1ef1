package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"secret-notes/auth"
)

type contextKey string

const identityKey contextKey = "identity"

const LoginPath = "/login"

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller stored by RequireSession.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// RequireSession lets a request through only with a valid session, taken
// from an "Authorization: Bearer" header or the session cookie. Anything
// else is redirected to the login page.
func RequireSession(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := sessionToken(r)
			if !ok {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			id, err := sessions.Parse(tokenStr)
			if err != nil {
				slog.DebugContext(r.Context(), "rejected session", "path", r.URL.Path, "error", err)
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func sessionToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader || tokenStr == "" {
			return "", false
		}
		return tokenStr, true
	}

	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
