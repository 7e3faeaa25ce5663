package auth

import (
	"context"
	"net/http"
	"time"
)

// SessionCookie is the name of the HttpOnly cookie holding the session JWT.
const SessionCookie = "session"

type contextKey string

const adminIDKey contextKey = "adminID"

// OptionalSession stores the admin id from a valid session cookie in the
// request context. Requests without one continue anonymously.
func OptionalSession(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminID, err := AdminIDFromRequest(r, tokens); err == nil {
				r = r.WithContext(WithAdminID(r.Context(), adminID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithAdminID returns a copy of ctx carrying adminID.
func WithAdminID(ctx context.Context, adminID int64) context.Context {
	return context.WithValue(ctx, adminIDKey, adminID)
}

// AdminIDFromContext returns (0, false) for anonymous requests.
func AdminIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(adminIDKey).(int64)
	return id, ok && id > 0
}

// AdminIDFromRequest reads and validates the session cookie.
func AdminIDFromRequest(r *http.Request, tokens *TokenService) (int64, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return 0, err
	}
	return tokens.Validate(cookie.Value)
}

// SetSessionCookie writes the session cookie for token. secure should be
// true when the request arrived over TLS.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
